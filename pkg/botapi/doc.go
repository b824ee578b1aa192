// Package botapi models the Telegram Bot API wire format.
//
// It provides immutable value objects for outgoing request payloads
// (editMessageText, sendMessage, sendInvoice, ...), payment objects,
// reply markup structures and the response fragments returned by the API.
// Every payload validates its fields when constructed and exposes a
// canonical JSON projection using the API's snake_case wire keys:
//
//   - absent optional fields are omitted, never emitted as null
//   - reply_markup is double-encoded: the markup is marshaled to JSON and
//     that text is embedded as a string leaf, as the Bot API documents it
//   - decoding ignores unknown keys and re-runs construction-time validation
//
// Constructors fail with an error wrapping ErrInvalidPayload. Encoding
// failures wrap ErrSerialization. Unrecognized enumeration values on the
// wire wrap ErrUnknownEnum.
//
// The package performs no I/O and keeps no shared state; all values may be
// built and encoded concurrently.
package botapi
