package botapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Payload is an outgoing Bot API request body.
type Payload interface {
	// Method is the Bot API method the payload is sent to, e.g. "editMessageText".
	Method() string
	json.Marshaler
}

// Marshal returns the canonical JSON projection of p. Encoder failures are
// reported as *SerializationError.
func Marshal(p Payload) ([]byte, error) {
	if p == nil {
		return nil, serializationErr("Payload", "", fmt.Errorf("nil payload"))
	}
	data, err := encodeJSON(p)
	if err != nil {
		return nil, serializationErr(p.Method(), "", err)
	}
	return data, nil
}

// FormValues returns the form-encoded projection of p, as accepted by the
// Bot API for application/x-www-form-urlencoded requests. String leaves are
// copied verbatim; numbers, booleans, objects and arrays are written as
// their JSON text.
func FormValues(p Payload) (url.Values, error) {
	data, err := Marshal(p)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, serializationErr(p.Method(), "", err)
	}

	values := make(url.Values, len(fields))
	for key, raw := range fields {
		raw = bytes.TrimSpace(raw)
		switch {
		case bytes.Equal(raw, []byte("null")):
			continue
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, serializationErr(p.Method(), key, err)
			}
			values.Set(key, s)
		default:
			values.Set(key, string(raw))
		}
	}
	return values, nil
}

// encodeJSON is json.Marshal with HTML escaping turned off, so that
// text like "<b>hi</b>" reaches the wire as written.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// chatRef is a chat identifier on the wire. The API accepts both an integer
// id and an @username string, so decoding accepts either; encoding always
// writes a string.
type chatRef string

// MarshalJSON implements json.Marshaler.
func (c chatRef) MarshalJSON() ([]byte, error) {
	return encodeJSON(string(c))
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *chatRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = chatRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chat_id must be a string or an integer: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("chat_id must be a string or an integer: %w", err)
	}
	*c = chatRef(n.String())
	return nil
}
