package botapi

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value that may be absent. The zero Optional is absent.
//
// Wire structs tag Optional fields with `omitzero`, so an absent value is
// left out of the JSON document entirely. A present zero value (Some(""),
// Some(false)) is emitted.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the held value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse returns the held value, or def when absent.
func (o Optional[T]) OrElse(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// IsZero reports whether the value is absent. encoding/json consults it
// for fields tagged `omitzero`.
func (o Optional[T]) IsZero() bool {
	return !o.set
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return encodeJSON(o.value)
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null decodes to an
// absent value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Optional[T]{value: v, set: true}
	return nil
}

// optionalString turns an empty string into an absent value.
func optionalString(s string) Optional[string] {
	if s == "" {
		return None[string]()
	}
	return Some(s)
}
