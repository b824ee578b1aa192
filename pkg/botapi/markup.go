package botapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// maxCallbackDataBytes is the Bot API limit for callback_data.
const maxCallbackDataBytes = 64

// ReplyMarkup is a keyboard or reply interface attached to a message.
// Implementations: *InlineKeyboardMarkup, *ReplyKeyboardMarkup,
// *ReplyKeyboardRemove and *ForceReply.
type ReplyMarkup interface {
	isReplyMarkup()
	// Validate checks the markup against the Bot API constraints.
	Validate() error
}

// InlineKeyboardButton is one button of an inline keyboard. Exactly one
// action field must be set.
type InlineKeyboardButton struct {
	Text                         string           `json:"text"`
	URL                          string           `json:"url,omitempty"`
	CallbackData                 string           `json:"callback_data,omitempty"`
	SwitchInlineQuery            Optional[string] `json:"switch_inline_query,omitzero"`
	SwitchInlineQueryCurrentChat Optional[string] `json:"switch_inline_query_current_chat,omitzero"`
	Pay                          bool             `json:"pay,omitempty"`
}

// NewInlineURLButton returns a button that opens url.
func NewInlineURLButton(text, url string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, URL: url}
}

// NewInlineCallbackButton returns a button that sends data in a callback query.
func NewInlineCallbackButton(text, data string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CallbackData: data}
}

// NewInlineSwitchButton returns a button that starts an inline query in
// another chat. An empty query inserts only the bot's username.
func NewInlineSwitchButton(text, query string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, SwitchInlineQuery: Some(query)}
}

// NewInlineSwitchCurrentChatButton is NewInlineSwitchButton for the current chat.
func NewInlineSwitchCurrentChatButton(text, query string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, SwitchInlineQueryCurrentChat: Some(query)}
}

// NewInlinePayButton returns a Pay button. Only valid as the first button of
// an invoice keyboard.
func NewInlinePayButton(text string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, Pay: true}
}

func (b InlineKeyboardButton) validate() error {
	if b.Text == "" {
		return invalid("InlineKeyboardButton", "text", "Button text should be provided")
	}
	if err := checkUTF8Fields("InlineKeyboardButton",
		stringField{"text", b.Text},
		stringField{"url", b.URL},
		stringField{"callback_data", b.CallbackData},
		stringField{"switch_inline_query", b.SwitchInlineQuery.OrElse("")},
		stringField{"switch_inline_query_current_chat", b.SwitchInlineQueryCurrentChat.OrElse("")},
	); err != nil {
		return err
	}
	actions := 0
	for _, set := range []bool{
		b.URL != "",
		b.CallbackData != "",
		b.SwitchInlineQuery.IsSet(),
		b.SwitchInlineQueryCurrentChat.IsSet(),
		b.Pay,
	} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return invalid("InlineKeyboardButton", "text", "Button %q should have exactly one action, but got: %d", b.Text, actions)
	}
	if n := len(b.CallbackData); n > maxCallbackDataBytes {
		return invalid("InlineKeyboardButton", "callback_data", "Callback data should be at most %d bytes, but got: %d", maxCallbackDataBytes, n)
	}
	return nil
}

// InlineKeyboardMarkup is a keyboard displayed under a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// NewInlineKeyboardMarkup builds and validates an inline keyboard from rows.
func NewInlineKeyboardMarkup(rows ...[]InlineKeyboardButton) (*InlineKeyboardMarkup, error) {
	m := &InlineKeyboardMarkup{InlineKeyboard: copyRows(rows)}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate implements ReplyMarkup.
func (m *InlineKeyboardMarkup) Validate() error {
	if m == nil {
		return invalid("InlineKeyboardMarkup", "inline_keyboard", "Inline keyboard should be provided")
	}
	if len(m.InlineKeyboard) == 0 {
		return invalid("InlineKeyboardMarkup", "inline_keyboard", "Inline keyboard should have at least one row")
	}
	for i, row := range m.InlineKeyboard {
		if len(row) == 0 {
			return invalid("InlineKeyboardMarkup", "inline_keyboard", "Row %d should have at least one button", i)
		}
		for _, b := range row {
			if err := b.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// startsWithPay reports whether the first button is a Pay button.
func (m *InlineKeyboardMarkup) startsWithPay() bool {
	return len(m.InlineKeyboard) > 0 && len(m.InlineKeyboard[0]) > 0 && m.InlineKeyboard[0][0].Pay
}

// KeyboardButton is one button of a custom reply keyboard.
type KeyboardButton struct {
	Text            string `json:"text"`
	RequestContact  bool   `json:"request_contact,omitempty"`
	RequestLocation bool   `json:"request_location,omitempty"`
}

// ReplyKeyboardMarkup replaces the user's keyboard with custom buttons.
type ReplyKeyboardMarkup struct {
	Keyboard        [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard,omitempty"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
	Selective       bool               `json:"selective,omitempty"`
}

// NewReplyKeyboardMarkup builds and validates a reply keyboard from rows.
func NewReplyKeyboardMarkup(rows ...[]KeyboardButton) (*ReplyKeyboardMarkup, error) {
	keyboard := make([][]KeyboardButton, len(rows))
	for i, row := range rows {
		keyboard[i] = append([]KeyboardButton(nil), row...)
	}
	m := &ReplyKeyboardMarkup{Keyboard: keyboard}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate implements ReplyMarkup.
func (m *ReplyKeyboardMarkup) Validate() error {
	if m == nil {
		return invalid("ReplyKeyboardMarkup", "keyboard", "Keyboard should be provided")
	}
	if len(m.Keyboard) == 0 {
		return invalid("ReplyKeyboardMarkup", "keyboard", "Keyboard should have at least one row")
	}
	for i, row := range m.Keyboard {
		if len(row) == 0 {
			return invalid("ReplyKeyboardMarkup", "keyboard", "Row %d should have at least one button", i)
		}
		for _, b := range row {
			if b.Text == "" {
				return invalid("KeyboardButton", "text", "Button text should be provided")
			}
			if err := checkUTF8("KeyboardButton", "text", b.Text); err != nil {
				return err
			}
			if b.RequestContact && b.RequestLocation {
				return invalid("KeyboardButton", "request_contact", "Button %q cannot request both contact and location", b.Text)
			}
		}
	}
	return nil
}

// ReplyKeyboardRemove asks clients to remove the custom keyboard.
type ReplyKeyboardRemove struct {
	Selective bool
}

// Validate implements ReplyMarkup.
func (m *ReplyKeyboardRemove) Validate() error {
	if m == nil {
		return invalid("ReplyKeyboardRemove", "remove_keyboard", "Markup should be provided")
	}
	return nil
}

type flagMarkupWire struct {
	RemoveKeyboard bool `json:"remove_keyboard,omitempty"`
	ForceReply     bool `json:"force_reply,omitempty"`
	Selective      bool `json:"selective,omitempty"`
}

// MarshalJSON implements json.Marshaler. remove_keyboard is always true.
func (m ReplyKeyboardRemove) MarshalJSON() ([]byte, error) {
	return encodeJSON(flagMarkupWire{RemoveKeyboard: true, Selective: m.Selective})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *ReplyKeyboardRemove) UnmarshalJSON(data []byte) error {
	var w flagMarkupWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.RemoveKeyboard {
		return invalid("ReplyKeyboardRemove", "remove_keyboard", "remove_keyboard should be true")
	}
	m.Selective = w.Selective
	return nil
}

// ForceReply makes clients display a reply interface to the user.
type ForceReply struct {
	Selective bool
}

// Validate implements ReplyMarkup.
func (m *ForceReply) Validate() error {
	if m == nil {
		return invalid("ForceReply", "force_reply", "Markup should be provided")
	}
	return nil
}

// MarshalJSON implements json.Marshaler. force_reply is always true.
func (m ForceReply) MarshalJSON() ([]byte, error) {
	return encodeJSON(flagMarkupWire{ForceReply: true, Selective: m.Selective})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *ForceReply) UnmarshalJSON(data []byte) error {
	var w flagMarkupWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.ForceReply {
		return invalid("ForceReply", "force_reply", "force_reply should be true")
	}
	m.Selective = w.Selective
	return nil
}

func (*InlineKeyboardMarkup) isReplyMarkup() {}
func (*ReplyKeyboardMarkup) isReplyMarkup()  {}
func (*ReplyKeyboardRemove) isReplyMarkup()  {}
func (*ForceReply) isReplyMarkup()           {}

// EncodeReplyMarkup performs the two-stage reply_markup encoding: the
// markup is marshaled to a JSON document, and the document's text is
// returned to be embedded as a string leaf of the outer payload. A nil
// markup yields an empty string.
func EncodeReplyMarkup(m ReplyMarkup) (string, error) {
	if m == nil {
		return "", nil
	}
	data, err := encodeJSON(m)
	if err != nil {
		return "", serializationErr("ReplyMarkup", "reply_markup", err)
	}
	if bytes.Equal(data, []byte("null")) {
		return "", serializationErr("ReplyMarkup", "reply_markup", fmt.Errorf("nil %T", m))
	}
	return string(data), nil
}

// DecodeReplyMarkup parses the string form of reply_markup back into a
// markup value. The variant is recognized by its distinguishing key.
func DecodeReplyMarkup(s string) (ReplyMarkup, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &keys); err != nil {
		return nil, invalid("ReplyMarkup", "reply_markup", "Reply markup should be a JSON object: %v", err)
	}

	var m ReplyMarkup
	switch {
	case keys["inline_keyboard"] != nil:
		m = &InlineKeyboardMarkup{}
	case keys["keyboard"] != nil:
		m = &ReplyKeyboardMarkup{}
	case keys["remove_keyboard"] != nil:
		m = &ReplyKeyboardRemove{}
	case keys["force_reply"] != nil:
		m = &ForceReply{}
	default:
		return nil, invalid("ReplyMarkup", "reply_markup", "Unrecognized reply markup")
	}

	if err := json.Unmarshal([]byte(s), m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// markupSnapshot validates m and fixes its wire form at construction time,
// so later changes to the caller's markup value cannot alter the payload.
func markupSnapshot(typ string, m ReplyMarkup) (Optional[string], error) {
	if m == nil {
		return None[string](), nil
	}
	if err := m.Validate(); err != nil {
		return None[string](), err
	}
	encoded, err := EncodeReplyMarkup(m)
	if err != nil {
		return None[string](), serializationErr(typ, "reply_markup", err)
	}
	return Some(encoded), nil
}

func copyRows(rows [][]InlineKeyboardButton) [][]InlineKeyboardButton {
	out := make([][]InlineKeyboardButton, len(rows))
	for i, row := range rows {
		out[i] = append([]InlineKeyboardButton(nil), row...)
	}
	return out
}
