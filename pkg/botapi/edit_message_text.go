package botapi

import (
	"encoding/json"
	"strconv"
	"unicode/utf8"
)

// MaxTextLength is the maximum message text length accepted by the API,
// in characters.
const MaxTextLength = 4096

// TextOptions carries the optional fields shared by text payloads.
type TextOptions struct {
	// ParseMode is absent for plain text.
	ParseMode Optional[ParseMode]
	// DisablePreview disables link previews for links in the message.
	DisablePreview Optional[bool]
	// ReplyMarkup is nil when no markup is attached.
	ReplyMarkup ReplyMarkup
}

// textFields is the validated, wire-ready form of a text and its options.
type textFields struct {
	Text           string              `json:"text"`
	ParseMode      Optional[ParseMode] `json:"parse_mode,omitzero"`
	DisablePreview Optional[bool]      `json:"disable_web_page_preview,omitzero"`
	ReplyMarkup    Optional[string]    `json:"reply_markup,omitzero"`
}

func newTextFields(typ, text string, opts TextOptions) (textFields, error) {
	if text == "" {
		return textFields{}, invalid(typ, "text", "New text should be provided")
	}
	if !utf8.ValidString(text) {
		return textFields{}, invalid(typ, "text", "Text should be valid UTF-8")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return textFields{}, invalid(typ, "text", "Text should be at most %d characters, but got: %d", MaxTextLength, n)
	}
	if pm, ok := opts.ParseMode.Get(); ok && !pm.Valid() {
		return textFields{}, invalid(typ, "parse_mode", "Unsupported parse mode: %q", string(pm))
	}
	markup, err := markupSnapshot(typ, opts.ReplyMarkup)
	if err != nil {
		return textFields{}, err
	}
	return textFields{
		Text:           text,
		ParseMode:      opts.ParseMode,
		DisablePreview: opts.DisablePreview,
		ReplyMarkup:    markup,
	}, nil
}

// options rebuilds TextOptions from decoded wire fields.
func (f textFields) options() (TextOptions, error) {
	opts := TextOptions{ParseMode: f.ParseMode, DisablePreview: f.DisablePreview}
	if s, ok := f.ReplyMarkup.Get(); ok {
		m, err := DecodeReplyMarkup(s)
		if err != nil {
			return TextOptions{}, err
		}
		opts.ReplyMarkup = m
	}
	return opts, nil
}

// replyMarkup decodes the fixed wire form of the markup, if any.
func (f textFields) replyMarkup() ReplyMarkup {
	return decodeSnapshot(f.ReplyMarkup)
}

func decodeSnapshot(encoded Optional[string]) ReplyMarkup {
	s, ok := encoded.Get()
	if !ok {
		return nil
	}
	m, err := DecodeReplyMarkup(s)
	if err != nil {
		// The snapshot was produced by EncodeReplyMarkup from a validated value.
		return nil
	}
	return m
}

// EditMessageTextPayload is the request body of editMessageText. It targets
// either a chat message or an inline message, never both.
type EditMessageTextPayload struct {
	address MessageAddress
	fields  textFields
}

var _ Payload = (*EditMessageTextPayload)(nil)

// NewEditMessageText validates and returns an editMessageText payload for addr.
func NewEditMessageText(addr MessageAddress, text string, opts TextOptions) (*EditMessageTextPayload, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	fields, err := newTextFields("EditMessageTextPayload", text, opts)
	if err != nil {
		return nil, err
	}
	return &EditMessageTextPayload{address: addr, fields: fields}, nil
}

// NewEditChatMessageText edits a message identified by chat and message id.
// chatID is a numeric identifier or @channelusername.
func NewEditChatMessageText(chatID string, messageID int64, text string, opts TextOptions) (*EditMessageTextPayload, error) {
	if chatID == "" {
		return nil, invalid("EditMessageTextPayload", "chat_id", "Chat ID should be provided")
	}
	addr, err := NewChatAddress(chatID, messageID)
	if err != nil {
		return nil, err
	}
	return NewEditMessageText(addr, text, opts)
}

// NewEditChatMessageTextInt is NewEditChatMessageText for a numeric chat id.
func NewEditChatMessageTextInt(chatID, messageID int64, text string, opts TextOptions) (*EditMessageTextPayload, error) {
	return NewEditChatMessageText(strconv.FormatInt(chatID, 10), messageID, text, opts)
}

// NewEditInlineMessageText edits a message sent via inline mode.
func NewEditInlineMessageText(inlineMessageID, text string, opts TextOptions) (*EditMessageTextPayload, error) {
	addr, err := NewInlineAddress(inlineMessageID)
	if err != nil {
		return nil, err
	}
	return NewEditMessageText(addr, text, opts)
}

// Method implements Payload.
func (p *EditMessageTextPayload) Method() string { return "editMessageText" }

// Address returns the message locator.
func (p *EditMessageTextPayload) Address() MessageAddress { return p.address }

// ChatID returns the chat identifier for chat-addressed payloads.
func (p *EditMessageTextPayload) ChatID() Optional[string] {
	if a, ok := p.address.(ChatAddress); ok {
		return Some(a.ChatID)
	}
	return None[string]()
}

// MessageID returns the message identifier for chat-addressed payloads.
func (p *EditMessageTextPayload) MessageID() Optional[int64] {
	if a, ok := p.address.(ChatAddress); ok {
		return Some(a.MessageID)
	}
	return None[int64]()
}

// InlineMessageID returns the identifier for inline-addressed payloads.
func (p *EditMessageTextPayload) InlineMessageID() Optional[string] {
	if a, ok := p.address.(InlineAddress); ok {
		return Some(a.InlineMessageID)
	}
	return None[string]()
}

// Text returns the new message text.
func (p *EditMessageTextPayload) Text() string { return p.fields.Text }

// ParseMode returns the parse mode; absent means plain text.
func (p *EditMessageTextPayload) ParseMode() Optional[ParseMode] { return p.fields.ParseMode }

// DisablePreview returns the link-preview suppression flag.
func (p *EditMessageTextPayload) DisablePreview() Optional[bool] { return p.fields.DisablePreview }

// ReplyMarkup returns a fresh copy of the attached markup, or nil.
func (p *EditMessageTextPayload) ReplyMarkup() ReplyMarkup { return p.fields.replyMarkup() }

// ReplyMarkupJSON returns the string that is sent as reply_markup.
func (p *EditMessageTextPayload) ReplyMarkupJSON() Optional[string] { return p.fields.ReplyMarkup }

type editMessageTextWire struct {
	addressFields
	textFields
}

// MarshalJSON implements json.Marshaler.
func (p *EditMessageTextPayload) MarshalJSON() ([]byte, error) {
	addr, err := projectAddress("EditMessageTextPayload", p.address)
	if err != nil {
		return nil, err
	}
	return encodeJSON(editMessageTextWire{addressFields: addr, textFields: p.fields})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded fields are
// validated exactly as the constructors do; unknown keys are ignored.
func (p *EditMessageTextPayload) UnmarshalJSON(data []byte) error {
	var w editMessageTextWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	addr, err := w.addressFields.address("EditMessageTextPayload")
	if err != nil {
		return err
	}
	opts, err := w.textFields.options()
	if err != nil {
		return err
	}
	decoded, err := NewEditMessageText(addr, w.Text, opts)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}
