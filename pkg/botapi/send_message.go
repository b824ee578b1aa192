package botapi

import (
	"encoding/json"
	"strconv"
)

// SendOptions extends TextOptions with the fields specific to sending a
// new message.
type SendOptions struct {
	TextOptions
	DisableNotification Optional[bool]
	ReplyToMessageID    Optional[int64]
}

// SendMessagePayload is the request body of sendMessage.
type SendMessagePayload struct {
	chatID              string
	fields              textFields
	disableNotification Optional[bool]
	replyToMessageID    Optional[int64]
}

var _ Payload = (*SendMessagePayload)(nil)

// NewSendMessage validates and returns a sendMessage payload.
func NewSendMessage(chatID, text string, opts SendOptions) (*SendMessagePayload, error) {
	if chatID == "" {
		return nil, invalid("SendMessagePayload", "chat_id", "Chat ID should be provided")
	}
	if err := checkUTF8("SendMessagePayload", "chat_id", chatID); err != nil {
		return nil, err
	}
	if id, ok := opts.ReplyToMessageID.Get(); ok && id <= 0 {
		return nil, invalid("SendMessagePayload", "reply_to_message_id", "Reply-to message ID should be positive, but got: %d", id)
	}
	fields, err := newTextFields("SendMessagePayload", text, opts.TextOptions)
	if err != nil {
		return nil, err
	}
	return &SendMessagePayload{
		chatID:              chatID,
		fields:              fields,
		disableNotification: opts.DisableNotification,
		replyToMessageID:    opts.ReplyToMessageID,
	}, nil
}

// NewSendMessageInt is NewSendMessage for a numeric chat id.
func NewSendMessageInt(chatID int64, text string, opts SendOptions) (*SendMessagePayload, error) {
	return NewSendMessage(strconv.FormatInt(chatID, 10), text, opts)
}

// Method implements Payload.
func (p *SendMessagePayload) Method() string { return "sendMessage" }

// ChatID returns the target chat.
func (p *SendMessagePayload) ChatID() string { return p.chatID }

// Text returns the message text.
func (p *SendMessagePayload) Text() string { return p.fields.Text }

// ParseMode returns the parse mode; absent means plain text.
func (p *SendMessagePayload) ParseMode() Optional[ParseMode] { return p.fields.ParseMode }

// DisablePreview returns the link-preview suppression flag.
func (p *SendMessagePayload) DisablePreview() Optional[bool] { return p.fields.DisablePreview }

// DisableNotification returns the silent-delivery flag.
func (p *SendMessagePayload) DisableNotification() Optional[bool] { return p.disableNotification }

// ReplyToMessageID returns the id of the message being replied to.
func (p *SendMessagePayload) ReplyToMessageID() Optional[int64] { return p.replyToMessageID }

// ReplyMarkup returns a fresh copy of the attached markup, or nil.
func (p *SendMessagePayload) ReplyMarkup() ReplyMarkup { return p.fields.replyMarkup() }

type sendMessageWire struct {
	ChatID chatRef `json:"chat_id"`
	textFields
	DisableNotification Optional[bool]  `json:"disable_notification,omitzero"`
	ReplyToMessageID    Optional[int64] `json:"reply_to_message_id,omitzero"`
}

// MarshalJSON implements json.Marshaler.
func (p *SendMessagePayload) MarshalJSON() ([]byte, error) {
	return encodeJSON(sendMessageWire{
		ChatID:              chatRef(p.chatID),
		textFields:          p.fields,
		DisableNotification: p.disableNotification,
		ReplyToMessageID:    p.replyToMessageID,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *SendMessagePayload) UnmarshalJSON(data []byte) error {
	var w sendMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	textOpts, err := w.textFields.options()
	if err != nil {
		return err
	}
	decoded, err := NewSendMessage(string(w.ChatID), w.Text, SendOptions{
		TextOptions:         textOpts,
		DisableNotification: w.DisableNotification,
		ReplyToMessageID:    w.ReplyToMessageID,
	})
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// EditMessageReplyMarkupPayload is the request body of
// editMessageReplyMarkup. A nil markup removes the inline keyboard.
type EditMessageReplyMarkupPayload struct {
	address MessageAddress
	markup  Optional[string]
}

var _ Payload = (*EditMessageReplyMarkupPayload)(nil)

// NewEditMessageReplyMarkup validates and returns an editMessageReplyMarkup payload.
func NewEditMessageReplyMarkup(addr MessageAddress, markup *InlineKeyboardMarkup) (*EditMessageReplyMarkupPayload, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	var rm ReplyMarkup
	if markup != nil {
		rm = markup
	}
	encoded, err := markupSnapshot("EditMessageReplyMarkupPayload", rm)
	if err != nil {
		return nil, err
	}
	return &EditMessageReplyMarkupPayload{address: addr, markup: encoded}, nil
}

// Method implements Payload.
func (p *EditMessageReplyMarkupPayload) Method() string { return "editMessageReplyMarkup" }

// Address returns the message locator.
func (p *EditMessageReplyMarkupPayload) Address() MessageAddress { return p.address }

// ReplyMarkup returns a fresh copy of the new keyboard, or nil.
func (p *EditMessageReplyMarkupPayload) ReplyMarkup() ReplyMarkup { return decodeSnapshot(p.markup) }

type editMessageReplyMarkupWire struct {
	addressFields
	ReplyMarkup Optional[string] `json:"reply_markup,omitzero"`
}

// MarshalJSON implements json.Marshaler.
func (p *EditMessageReplyMarkupPayload) MarshalJSON() ([]byte, error) {
	addr, err := projectAddress("EditMessageReplyMarkupPayload", p.address)
	if err != nil {
		return nil, err
	}
	return encodeJSON(editMessageReplyMarkupWire{addressFields: addr, ReplyMarkup: p.markup})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *EditMessageReplyMarkupPayload) UnmarshalJSON(data []byte) error {
	var w editMessageReplyMarkupWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	addr, err := w.addressFields.address("EditMessageReplyMarkupPayload")
	if err != nil {
		return err
	}
	var markup *InlineKeyboardMarkup
	if s, ok := w.ReplyMarkup.Get(); ok {
		m, err := DecodeReplyMarkup(s)
		if err != nil {
			return err
		}
		inline, ok := m.(*InlineKeyboardMarkup)
		if !ok {
			return invalid("EditMessageReplyMarkupPayload", "reply_markup", "Only inline keyboards can be edited, but got: %T", m)
		}
		markup = inline
	}
	decoded, err := NewEditMessageReplyMarkup(addr, markup)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}
