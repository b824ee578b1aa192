package botapi

import (
	"encoding/json"
	"fmt"
)

// Update represents an incoming update from the Telegram Bot API.
type Update struct {
	UpdateID         int               `json:"update_id"`
	Message          *Message          `json:"message,omitempty"`
	EditedMessage    *Message          `json:"edited_message,omitempty"`
	ChannelPost      *Message          `json:"channel_post,omitempty"`
	CallbackQuery    *CallbackQuery    `json:"callback_query,omitempty"`
	ShippingQuery    *ShippingQuery    `json:"shipping_query,omitempty"`
	PreCheckoutQuery *PreCheckoutQuery `json:"pre_checkout_query,omitempty"`
}

// Message represents a Telegram message.
type Message struct {
	MessageID         int64                 `json:"message_id"`
	From              *User                 `json:"from,omitempty"`
	Chat              Chat                  `json:"chat"`
	Date              int64                 `json:"date"`
	EditDate          int64                 `json:"edit_date,omitempty"`
	Text              string                `json:"text,omitempty"`
	Entities          []MessageEntity       `json:"entities,omitempty"`
	Caption           string                `json:"caption,omitempty"`
	ReplyToMessage    *Message              `json:"reply_to_message,omitempty"`
	Invoice           *Invoice              `json:"invoice,omitempty"`
	SuccessfulPayment *SuccessfulPayment    `json:"successful_payment,omitempty"`
	ReplyMarkup       *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID        int64    `json:"id"`
	Type      ChatType `json:"type"`
	Title     string   `json:"title,omitempty"`
	Username  string   `json:"username,omitempty"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
}

// User represents a Telegram user or bot.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// MessageEntity represents a special entity in a text message (e.g., hashtags, URLs, bot commands).
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
	User   *User  `json:"user,omitempty"`
}

// CallbackQuery is an incoming callback from an inline keyboard button.
type CallbackQuery struct {
	ID              string   `json:"id"`
	From            User     `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	ChatInstance    string   `json:"chat_instance"`
	Data            string   `json:"data,omitempty"`
}

// Address returns the locator of the message the button was attached to,
// suitable for editMessageText. ok is false when the query carries neither
// a message nor an inline message id.
func (q *CallbackQuery) Address() (addr MessageAddress, ok bool) {
	switch {
	case q.InlineMessageID != "":
		return InlineAddress{InlineMessageID: q.InlineMessageID}, true
	case q.Message != nil:
		a, err := NewChatAddressInt(q.Message.Chat.ID, q.Message.MessageID)
		if err != nil {
			return nil, false
		}
		return a, true
	}
	return nil, false
}

// Response is the envelope returned by every Bot API method.
type Response[T any] struct {
	OK          bool                `json:"ok"`
	Result      T                   `json:"result"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters contains information about why a request was unsuccessful.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// Err returns the API error carried by a failed envelope, or nil.
func (r *Response[T]) Err() error {
	if r.OK {
		return nil
	}
	apiErr := &APIError{
		Code:        r.ErrorCode,
		Description: r.Description,
	}
	if r.Parameters != nil {
		apiErr.RetryAfter = r.Parameters.RetryAfter
		apiErr.MigrateToChatID = r.Parameters.MigrateToChatID
	}
	return apiErr
}

// DecodeResponse decodes a Bot API envelope and returns its result, or the
// API error when ok is false.
func DecodeResponse[T any](data []byte) (T, error) {
	var resp Response[T]
	if err := json.Unmarshal(data, &resp); err != nil {
		var zero T
		return zero, fmt.Errorf("botapi: decode response: %w", err)
	}
	if err := resp.Err(); err != nil {
		var zero T
		return zero, err
	}
	return resp.Result, nil
}

// APIError represents an error returned by the Telegram Bot API.
type APIError struct {
	Code            int    `json:"error_code"`
	Description     string `json:"description"`
	RetryAfter      int    `json:"retry_after,omitempty"`
	MigrateToChatID int64  `json:"migrate_to_chat_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram: %d %s (retry after %ds)", e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}
