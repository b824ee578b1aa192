package security

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateBodySize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		max     int
		wantErr error
	}{
		{name: "within limit", size: 100, max: 1024, wantErr: nil},
		{name: "at limit", size: 1024, max: 1024, wantErr: nil},
		{name: "over limit", size: 1025, max: 1024, wantErr: ErrBodyTooLarge},
		{name: "zero max uses default", size: DefaultMaxBodySize, max: 0, wantErr: nil},
		{name: "over default", size: DefaultMaxBodySize + 1, max: 0, wantErr: ErrBodyTooLarge},
		{name: "empty data", size: 0, max: 100, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateBodySize(make([]byte, tt.size), tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateBodySize(size=%d, max=%d) = %v, want %v",
					tt.size, tt.max, err, tt.wantErr)
			}
		})
	}
}

func TestValidateJSONDepth(t *testing.T) {
	t.Parallel()

	keyboard := `{"method":"sendMessage","reply_markup":{"inline_keyboard":[[{"text":"A","callback_data":"a"}]]}}`

	tests := []struct {
		name    string
		json    string
		max     int
		wantErr error
	}{
		{name: "flat document", json: `{"method":"sendMessage","text":"hi"}`, max: 1},
		{name: "inline keyboard within limit", json: keyboard, max: 5},
		{name: "inline keyboard over limit", json: keyboard, max: 4, wantErr: ErrJSONTooDeep},
		{name: "array over limit", json: `[[[[1]]]]`, max: 3, wantErr: ErrJSONTooDeep},
		{name: "empty data", json: "", max: 1},
		{name: "zero max uses default", json: keyboard, max: 0},
		{name: "truncated", json: `{"method":`, max: 3, wantErr: ErrInvalidJSON},
		{name: "unclosed array", json: `[`, max: 3, wantErr: ErrInvalidJSON},
		{name: "unclosed nested", json: `{"a":[1,2`, max: 3, wantErr: ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateJSONDepth([]byte(tt.json), tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateJSONDepth(%q, %d) = %v, want %v",
					tt.json, tt.max, err, tt.wantErr)
			}
		})
	}
}

func TestValidateJSONDepth_DeepNesting(t *testing.T) {
	t.Parallel()

	depth := 50
	var sb strings.Builder
	for range depth {
		sb.WriteString(`{"a":`)
	}
	sb.WriteString("1")
	for range depth {
		sb.WriteString("}")
	}

	err := ValidateJSONDepth([]byte(sb.String()), 0)
	if !errors.Is(err, ErrJSONTooDeep) {
		t.Errorf("expected ErrJSONTooDeep for depth %d, got %v", depth, err)
	}
}

func TestLooksLikeJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		`{"method":"x"}`:       true,
		"\n  [1]":              true,
		"method: sendMessage": false,
		"":                    false,
	}
	for input, want := range tests {
		if got := LooksLikeJSON([]byte(input)); got != want {
			t.Errorf("LooksLikeJSON(%q) = %v, want %v", input, got, want)
		}
	}
}

func BenchmarkValidateJSONDepth(b *testing.B) {
	data := []byte(`{"method":"sendInvoice","prices":[{"label":"Tea","amount":990}],"reply_markup":{"inline_keyboard":[[{"text":"Pay","pay":true}]]}}`)
	for b.Loop() {
		_ = ValidateJSONDepth(data, DefaultMaxJSONDepth)
	}
}
