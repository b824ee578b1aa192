package botapi

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors for payload construction and encoding.
var (
	// ErrInvalidPayload indicates a required field is missing or a field
	// violates its documented range.
	ErrInvalidPayload = errors.New("botapi: invalid payload")

	// ErrSerialization indicates a value could not be projected to its
	// wire form.
	ErrSerialization = errors.New("botapi: serialization failure")

	// ErrUnknownEnum indicates an enumeration value not recognized by
	// this package was found on the wire.
	ErrUnknownEnum = errors.New("botapi: unknown enumeration value")
)

// InvalidPayloadError describes the constraint a value violated.
type InvalidPayloadError struct {
	// Type is the Go type being constructed, e.g. "Invoice".
	Type string
	// Field is the wire key of the offending field, when there is one.
	Field string
	// Reason is the human-readable constraint description.
	Reason string
}

// Error implements the error interface.
func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("botapi: invalid %s: %s", e.Type, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidPayload.
func (e *InvalidPayloadError) Unwrap() error {
	return ErrInvalidPayload
}

// SerializationError wraps an encoder failure for a given type and field.
type SerializationError struct {
	Type  string
	Field string
	Err   error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("botapi: encode %s.%s: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("botapi: encode %s: %v", e.Type, e.Err)
}

// Unwrap exposes both ErrSerialization and the underlying cause.
func (e *SerializationError) Unwrap() []error {
	return []error{ErrSerialization, e.Err}
}

func invalid(typ, field, format string, args ...any) error {
	return &InvalidPayloadError{
		Type:   typ,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// checkUTF8 rejects strings that encoding/json would rewrite with U+FFFD.
func checkUTF8(typ, field, s string) error {
	if !utf8.ValidString(s) {
		return invalid(typ, field, "Value should be valid UTF-8")
	}
	return nil
}

type stringField struct {
	name, value string
}

// checkUTF8Fields is checkUTF8 over several fields, in order.
func checkUTF8Fields(typ string, fields ...stringField) error {
	for _, f := range fields {
		if err := checkUTF8(typ, f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func serializationErr(typ, field string, err error) error {
	var se *SerializationError
	if errors.As(err, &se) {
		return err
	}
	return &SerializationError{Type: typ, Field: field, Err: err}
}
