package botapi

import (
	"fmt"
	"strconv"
)

// MessageAddress locates a previously sent message. It has exactly two
// implementations: ChatAddress and InlineAddress.
type MessageAddress interface {
	isMessageAddress()
}

// ChatAddress targets a message by chat and message identifier.
type ChatAddress struct {
	// ChatID is the numeric chat identifier or @channelusername.
	ChatID    string
	MessageID int64
}

// InlineAddress targets a message sent via inline mode.
type InlineAddress struct {
	InlineMessageID string
}

func (ChatAddress) isMessageAddress()   {}
func (InlineAddress) isMessageAddress() {}

// NewChatAddress validates and returns a chat-based address.
func NewChatAddress(chatID string, messageID int64) (ChatAddress, error) {
	if chatID == "" {
		return ChatAddress{}, invalid("ChatAddress", "chat_id", "Chat ID should be provided")
	}
	if err := checkUTF8("ChatAddress", "chat_id", chatID); err != nil {
		return ChatAddress{}, err
	}
	if messageID <= 0 {
		return ChatAddress{}, invalid("ChatAddress", "message_id", "Message ID should be positive, but got: %d", messageID)
	}
	return ChatAddress{ChatID: chatID, MessageID: messageID}, nil
}

// NewChatAddressInt is NewChatAddress for a numeric chat identifier.
func NewChatAddressInt(chatID, messageID int64) (ChatAddress, error) {
	return NewChatAddress(strconv.FormatInt(chatID, 10), messageID)
}

// NewInlineAddress validates and returns an inline-message address.
func NewInlineAddress(inlineMessageID string) (InlineAddress, error) {
	if inlineMessageID == "" {
		return InlineAddress{}, invalid("InlineAddress", "inline_message_id", "Inline message ID should be provided")
	}
	if err := checkUTF8("InlineAddress", "inline_message_id", inlineMessageID); err != nil {
		return InlineAddress{}, err
	}
	return InlineAddress{InlineMessageID: inlineMessageID}, nil
}

// validateAddress re-checks an address supplied by the caller as a value.
func validateAddress(addr MessageAddress) error {
	switch a := addr.(type) {
	case ChatAddress:
		_, err := NewChatAddress(a.ChatID, a.MessageID)
		return err
	case InlineAddress:
		_, err := NewInlineAddress(a.InlineMessageID)
		return err
	case nil:
		return invalid("MessageAddress", "", "Message address should be provided")
	default:
		return invalid("MessageAddress", "", "unsupported address type %T", addr)
	}
}

// addressFields is the wire projection shared by payloads that target an
// existing message.
type addressFields struct {
	ChatID          Optional[chatRef] `json:"chat_id,omitzero"`
	MessageID       Optional[int64]   `json:"message_id,omitzero"`
	InlineMessageID Optional[string]  `json:"inline_message_id,omitzero"`
}

func projectAddress(typ string, addr MessageAddress) (addressFields, error) {
	switch a := addr.(type) {
	case ChatAddress:
		return addressFields{
			ChatID:    Some(chatRef(a.ChatID)),
			MessageID: Some(a.MessageID),
		}, nil
	case InlineAddress:
		return addressFields{
			InlineMessageID: Some(a.InlineMessageID),
		}, nil
	default:
		return addressFields{}, serializationErr(typ, "address", fmt.Errorf("unsupported address type %T", addr))
	}
}

// address rebuilds the sum type from decoded wire fields. Exactly one
// addressing mode must be populated.
func (f addressFields) address(typ string) (MessageAddress, error) {
	chatID, hasChat := f.ChatID.Get()
	messageID, hasMessage := f.MessageID.Get()
	inlineID, hasInline := f.InlineMessageID.Get()

	switch {
	case hasInline && (hasChat || hasMessage):
		return nil, invalid(typ, "inline_message_id", "Either chat_id/message_id or inline_message_id should be provided, not both")
	case hasInline:
		return NewInlineAddress(inlineID)
	case hasChat || hasMessage:
		return NewChatAddress(string(chatID), messageID)
	default:
		return nil, invalid(typ, "chat_id", "Chat ID should be provided")
	}
}
