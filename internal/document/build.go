package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/flemzord/tgapi/internal/config"
	"github.com/flemzord/tgapi/pkg/botapi"
)

// decodable is a payload that validates itself while decoding.
type decodable interface {
	botapi.Payload
	json.Unmarshaler
}

// builders maps each supported method to a fresh payload value.
var builders = map[string]func() decodable{
	"sendMessage":            func() decodable { return new(botapi.SendMessagePayload) },
	"editMessageText":        func() decodable { return new(botapi.EditMessageTextPayload) },
	"editMessageReplyMarkup": func() decodable { return new(botapi.EditMessageReplyMarkupPayload) },
	"answerCallbackQuery":    func() decodable { return new(botapi.AnswerCallbackQueryPayload) },
	"sendInvoice":            func() decodable { return new(botapi.SendInvoicePayload) },
	"answerPreCheckoutQuery": func() decodable { return new(botapi.AnswerPreCheckoutQueryPayload) },
	"answerShippingQuery":    func() decodable { return new(botapi.AnswerShippingQueryPayload) },
}

// textMethods take parse_mode and disable_web_page_preview.
var textMethods = map[string]bool{
	"sendMessage":     true,
	"editMessageText": true,
}

// Methods returns the supported method names, sorted.
func Methods() []string {
	return slices.Sorted(maps.Keys(builders))
}

// Defaults are applied to text payloads whose document omits the field.
// A document can opt out of a default parse mode with "parse_mode: null".
type Defaults struct {
	ParseMode      botapi.Optional[botapi.ParseMode]
	DisablePreview botapi.Optional[bool]
}

// DefaultsFrom converts the configuration section into Defaults.
func DefaultsFrom(c config.DefaultsConfig) (Defaults, error) {
	var d Defaults
	if c.ParseMode != "" {
		pm, err := botapi.ParseParseMode(c.ParseMode)
		if err != nil {
			return Defaults{}, err
		}
		d.ParseMode = botapi.Some(pm)
	}
	if c.DisableWebPagePreview != nil {
		d.DisablePreview = botapi.Some(*c.DisableWebPagePreview)
	}
	return d, nil
}

// Build turns a document into a validated payload. Construction errors
// from botapi are returned wrapped, so errors.Is still matches
// botapi.ErrInvalidPayload and friends.
func Build(doc Document, defaults Defaults) (botapi.Payload, error) {
	newPayload, ok := builders[doc.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q", ErrUnknownMethod, doc.Source, doc.Method)
	}

	fields := maps.Clone(doc.Fields)
	if fields == nil {
		fields = map[string]any{}
	}

	if err := encodeMarkup(fields); err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Source, err)
	}
	if textMethods[doc.Method] {
		applyDefaults(fields, defaults)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, doc.Source, err)
	}

	p := newPayload()
	if err := p.UnmarshalJSON(data); err != nil {
		if isPayloadError(err) {
			return nil, fmt.Errorf("%s: %w", doc.Source, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, doc.Source, err)
	}
	return p, nil
}

// encodeMarkup runs the first stage of the reply_markup encoding when the
// document writes the markup as a mapping rather than a JSON string.
func encodeMarkup(fields map[string]any) error {
	v, ok := fields["reply_markup"]
	if !ok {
		return nil
	}
	switch v.(type) {
	case nil, string:
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: reply_markup: %w", ErrMalformed, err)
	}
	fields["reply_markup"] = string(data)
	return nil
}

func applyDefaults(fields map[string]any, d Defaults) {
	if pm, ok := d.ParseMode.Get(); ok {
		if _, present := fields["parse_mode"]; !present {
			fields["parse_mode"] = string(pm)
		}
	}
	if v, ok := d.DisablePreview.Get(); ok {
		if _, present := fields["disable_web_page_preview"]; !present {
			fields["disable_web_page_preview"] = v
		}
	}
}

func isPayloadError(err error) bool {
	return errors.Is(err, botapi.ErrInvalidPayload) ||
		errors.Is(err, botapi.ErrUnknownEnum) ||
		errors.Is(err, botapi.ErrSerialization)
}
