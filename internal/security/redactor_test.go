package security

import (
	"testing"
)

const testBotToken = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

func TestRedactor_DefaultPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bot token",
			input: "token is " + testBotToken,
			want:  "token is " + RedactPlaceholder,
		},
		{
			name:  "bot token in api url",
			input: "POST https://api.telegram.org/bot" + testBotToken + "/sendMessage",
			want:  "POST https://api.telegram.org/bot" + RedactPlaceholder + "/sendMessage",
		},
		{
			name:  "test provider token",
			input: "provider 284685063:TEST:NjM3ZjA0YjE4NzRm ready",
			want:  "provider " + RedactPlaceholder + " ready",
		},
		{
			name:  "live provider token",
			input: "381764678:LIVE:abc_DEF-123",
			want:  RedactPlaceholder,
		},
		{
			name:  "stripe key",
			input: "stripe sk_live_abcdefghijklmnop1234",
			want:  "stripe " + RedactPlaceholder,
		},
		{
			name:  "bearer header",
			input: "Authorization: Bearer abc.def-ghi_jkl",
			want:  "Authorization: " + RedactPlaceholder,
		},
		{
			name:  "chat and message ids",
			input: "chat_id=-1001234567890 message_id=42",
			want:  "chat_id=-1001234567890 message_id=42",
		},
		{
			name:  "no secrets",
			input: "this is a normal message",
			want:  "this is a normal message",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "multiple secrets",
			input: testBotToken + " and 1:TEST:x",
			want:  RedactPlaceholder + " and " + RedactPlaceholder,
		},
	}

	r := NewRedactor()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := r.Redact(tt.input)
			if got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactor_Literals(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	r.AddLiteral("my-super-secret-value", "")

	got := r.Redact("the token is my-super-secret-value here")
	want := "the token is " + RedactPlaceholder + " here"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRedactor_RedactMap(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	r.AddLiteral("literal-secret")

	m := map[string]any{
		"method":         "sendInvoice",
		"provider_token": "284685063:TEST:NjM3ZjA0YjE4NzRm",
		"bearer_token":   "gateway-token",
		"payload":        "has literal-secret inside",
		"secret_token":   "",
		"gateway": map[string]any{
			"bearer_token": "nested-secret",
			"bind":         "127.0.0.1:8089",
		},
		"prices": []any{
			map[string]any{"label": "Tea", "credential": "list-secret"},
		},
	}

	r.RedactMap(m)

	if m["provider_token"] != RedactPlaceholder {
		t.Errorf("provider_token = %v, want redacted", m["provider_token"])
	}
	if m["bearer_token"] != RedactPlaceholder {
		t.Errorf("bearer_token = %v, want redacted", m["bearer_token"])
	}
	if m["payload"] != "has "+RedactPlaceholder+" inside" {
		t.Errorf("payload = %v, want literal redacted", m["payload"])
	}
	if m["method"] != "sendInvoice" {
		t.Errorf("method = %v, want sendInvoice", m["method"])
	}
	if m["secret_token"] != "" {
		t.Errorf("secret_token = %v, want empty", m["secret_token"])
	}

	gw := m["gateway"].(map[string]any)
	if gw["bearer_token"] != RedactPlaceholder {
		t.Errorf("gateway.bearer_token = %v, want redacted", gw["bearer_token"])
	}
	if gw["bind"] != "127.0.0.1:8089" {
		t.Errorf("gateway.bind = %v, want unchanged", gw["bind"])
	}

	item := m["prices"].([]any)[0].(map[string]any)
	if item["credential"] != RedactPlaceholder {
		t.Errorf("prices[0].credential = %v, want redacted", item["credential"])
	}
	if item["label"] != "Tea" {
		t.Errorf("prices[0].label = %v, want Tea", item["label"])
	}
}

func TestRedactor_AddPattern(t *testing.T) {
	t.Parallel()

	r := &Redactor{}
	r.AddPattern(DefaultPatterns()[0])

	got := r.Redact("1:LIVE:abc")
	if got != RedactPlaceholder {
		t.Errorf("got %q, want %q", got, RedactPlaceholder)
	}
}

func FuzzRedactor(f *testing.F) {
	f.Add("normal text")
	f.Add(testBotToken)
	f.Add("284685063:TEST:NjM3ZjA0YjE4NzRm")
	f.Add("Bearer abcdefgh")
	f.Add("")

	r := NewRedactor()
	r.AddLiteral("test-literal-secret")

	f.Fuzz(func(t *testing.T, input string) {
		result := r.Redact(input)

		double := r.Redact(result)
		if double != result {
			t.Errorf("redaction not idempotent: Redact(Redact(%q)) = %q, want %q", input, double, result)
		}
	})
}
