package botapi

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestUpdate_IgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	input := `{
		"update_id": 1,
		"message_reaction": {"anything": true},
		"message": {
			"message_id": 3,
			"chat": {"id": -100, "type": "supergroup", "title": "Ops"},
			"date": 1700000000,
			"text": "/start",
			"entities": [{"type": "bot_command", "offset": 0, "length": 6}],
			"sticker": {"file_id": "x"}
		}
	}`

	var u Update
	if err := json.Unmarshal([]byte(input), &u); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if u.Message == nil || u.Message.Chat.Type != ChatSupergroup {
		t.Fatalf("Message = %+v", u.Message)
	}
	if len(u.Message.Entities) != 1 || u.Message.Entities[0].Type != "bot_command" {
		t.Errorf("Entities = %+v", u.Message.Entities)
	}
}

func TestChat_UnknownType(t *testing.T) {
	t.Parallel()

	var c Chat
	err := json.Unmarshal([]byte(`{"id":1,"type":"forum"}`), &c)
	if !errors.Is(err, ErrUnknownEnum) {
		t.Errorf("error = %v, want ErrUnknownEnum", err)
	}
}

func TestCallbackQuery_Address(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		query  CallbackQuery
		want   MessageAddress
		wantOK bool
	}{
		{
			name:   "inline",
			query:  CallbackQuery{ID: "1", InlineMessageID: "inl"},
			want:   InlineAddress{InlineMessageID: "inl"},
			wantOK: true,
		},
		{
			name:   "chat",
			query:  CallbackQuery{ID: "2", Message: &Message{MessageID: 11, Chat: Chat{ID: -5}}},
			want:   ChatAddress{ChatID: "-5", MessageID: 11},
			wantOK: true,
		},
		{
			name:  "neither",
			query: CallbackQuery{ID: "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := tt.query.Address()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Address() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		msg, err := DecodeResponse[Message]([]byte(`{"ok":true,"result":{"message_id":4,"chat":{"id":1,"type":"private"},"date":0}}`))
		if err != nil {
			t.Fatalf("DecodeResponse() error: %v", err)
		}
		if msg.MessageID != 4 {
			t.Errorf("MessageID = %d, want 4", msg.MessageID)
		}
	})

	t.Run("api error", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeResponse[bool]([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`))
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want *APIError", err)
		}
		if apiErr.RetryAfter != 3 || apiErr.Code != 429 {
			t.Errorf("APIError = %+v", apiErr)
		}
		if got, want := apiErr.Error(), "telegram: 429 Too Many Requests (retry after 3s)"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()

		if _, err := DecodeResponse[bool]([]byte(`{`)); err == nil {
			t.Error("expected error for malformed envelope")
		}
	})
}
