package botapi

import (
	"encoding/json"
	"fmt"
)

// ParseMode selects how Telegram renders entities in message text.
// Plain text is expressed by leaving the parse mode absent.
type ParseMode string

// Supported parse modes.
const (
	ParseModeMarkdown   ParseMode = "Markdown"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
	ParseModeHTML       ParseMode = "HTML"
)

// ParseParseMode maps a wire string to a ParseMode. Matching is exact.
func ParseParseMode(s string) (ParseMode, error) {
	switch pm := ParseMode(s); pm {
	case ParseModeMarkdown, ParseModeMarkdownV2, ParseModeHTML:
		return pm, nil
	}
	return "", fmt.Errorf("%w: parse_mode %q", ErrUnknownEnum, s)
}

// Valid reports whether m is one of the supported parse modes.
func (m ParseMode) Valid() bool {
	_, err := ParseParseMode(string(m))
	return err == nil
}

// MarshalJSON implements json.Marshaler.
func (m ParseMode) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: parse_mode %q", ErrUnknownEnum, string(m))
	}
	return encodeJSON(string(m))
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *ParseMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: parse_mode must be a string", ErrUnknownEnum)
	}
	pm, err := ParseParseMode(s)
	if err != nil {
		return err
	}
	*m = pm
	return nil
}

// ChatType is the kind of a chat as reported by the API.
type ChatType string

// Chat types.
const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// UnmarshalJSON implements json.Unmarshaler.
func (c *ChatType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: chat type must be a string", ErrUnknownEnum)
	}
	switch ct := ChatType(s); ct {
	case ChatPrivate, ChatGroup, ChatSupergroup, ChatChannel:
		*c = ct
		return nil
	}
	return fmt.Errorf("%w: chat type %q", ErrUnknownEnum, s)
}
