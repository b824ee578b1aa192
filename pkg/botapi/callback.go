package botapi

import (
	"encoding/json"
	"unicode/utf8"
)

// maxCallbackAnswerLength is the limit for the notification text of a
// callback query answer, in characters.
const maxCallbackAnswerLength = 200

// CallbackAnswerOptions carries the optional fields of answerCallbackQuery.
type CallbackAnswerOptions struct {
	Text      Optional[string]
	ShowAlert Optional[bool]
	URL       Optional[string]
	// CacheTime is in seconds.
	CacheTime Optional[int]
}

// AnswerCallbackQueryPayload is the request body of answerCallbackQuery.
type AnswerCallbackQueryPayload struct {
	w answerCallbackQueryWire
}

var _ Payload = (*AnswerCallbackQueryPayload)(nil)

type answerCallbackQueryWire struct {
	CallbackQueryID string           `json:"callback_query_id"`
	Text            Optional[string] `json:"text,omitzero"`
	ShowAlert       Optional[bool]   `json:"show_alert,omitzero"`
	URL             Optional[string] `json:"url,omitzero"`
	CacheTime       Optional[int]    `json:"cache_time,omitzero"`
}

// NewAnswerCallbackQuery validates and returns an answerCallbackQuery payload.
func NewAnswerCallbackQuery(callbackQueryID string, opts CallbackAnswerOptions) (*AnswerCallbackQueryPayload, error) {
	const typ = "AnswerCallbackQueryPayload"
	if callbackQueryID == "" {
		return nil, invalid(typ, "callback_query_id", "Callback query ID should be provided")
	}
	if err := checkUTF8(typ, "callback_query_id", callbackQueryID); err != nil {
		return nil, err
	}
	if err := checkUTF8(typ, "url", opts.URL.OrElse("")); err != nil {
		return nil, err
	}
	if text, ok := opts.Text.Get(); ok {
		if err := checkUTF8(typ, "text", text); err != nil {
			return nil, err
		}
		if n := utf8.RuneCountInString(text); n > maxCallbackAnswerLength {
			return nil, invalid(typ, "text", "Text should be at most %d characters, but got: %d", maxCallbackAnswerLength, n)
		}
	}
	if secs, ok := opts.CacheTime.Get(); ok && secs < 0 {
		return nil, invalid(typ, "cache_time", "Cache time should be greater than or equal to zero, but got: %d", secs)
	}
	return &AnswerCallbackQueryPayload{w: answerCallbackQueryWire{
		CallbackQueryID: callbackQueryID,
		Text:            opts.Text,
		ShowAlert:       opts.ShowAlert,
		URL:             opts.URL,
		CacheTime:       opts.CacheTime,
	}}, nil
}

// Method implements Payload.
func (p *AnswerCallbackQueryPayload) Method() string { return "answerCallbackQuery" }

// CallbackQueryID returns the id of the query being answered.
func (p *AnswerCallbackQueryPayload) CallbackQueryID() string { return p.w.CallbackQueryID }

// Text returns the notification text.
func (p *AnswerCallbackQueryPayload) Text() Optional[string] { return p.w.Text }

// ShowAlert reports whether an alert is shown instead of a notification.
func (p *AnswerCallbackQueryPayload) ShowAlert() Optional[bool] { return p.w.ShowAlert }

// URL returns the URL opened by the client.
func (p *AnswerCallbackQueryPayload) URL() Optional[string] { return p.w.URL }

// CacheTime returns the client-side cache duration in seconds.
func (p *AnswerCallbackQueryPayload) CacheTime() Optional[int] { return p.w.CacheTime }

// MarshalJSON implements json.Marshaler.
func (p *AnswerCallbackQueryPayload) MarshalJSON() ([]byte, error) {
	return encodeJSON(p.w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *AnswerCallbackQueryPayload) UnmarshalJSON(data []byte) error {
	var w answerCallbackQueryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := NewAnswerCallbackQuery(w.CallbackQueryID, CallbackAnswerOptions{
		Text:      w.Text,
		ShowAlert: w.ShowAlert,
		URL:       w.URL,
		CacheTime: w.CacheTime,
	})
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}
