// Package document reads request documents: YAML or JSON files describing
// one Bot API call each, keyed by the wire names of the method's fields.
//
//	method: editMessageText
//	chat_id: "42"
//	message_id: 7
//	text: Order shipped
//	reply_markup:
//	  inline_keyboard:
//	    - [{text: Track, url: "https://example.com/t/7"}]
//
// A file may hold several documents separated by "---".
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/flemzord/tgapi/internal/config"
	"gopkg.in/yaml.v3"
)

// Sentinel errors returned while reading or building documents.
var (
	ErrMalformed     = errors.New("document: malformed")
	ErrMissingMethod = errors.New("document: missing method")
	ErrUnknownMethod = errors.New("document: unknown method")
)

// Document is one decoded request document.
type Document struct {
	// Method is the Bot API method, e.g. "sendInvoice".
	Method string
	// Fields holds every key except method, as decoded from YAML.
	Fields map[string]any
	// Source identifies the document in errors, e.g. "order.yaml#2".
	Source string
}

// Load reads a file that must contain exactly one document.
func Load(path string) (Document, error) {
	docs, err := LoadAll(path)
	if err != nil {
		return Document{}, err
	}
	if len(docs) != 1 {
		return Document{}, fmt.Errorf("%w: %s: expected one document, found %d", ErrMalformed, path, len(docs))
	}
	return docs[0], nil
}

// LoadAll reads every document in a file.
func LoadAll(path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: reading %s: %w", path, err)
	}
	return Parse(raw, path)
}

// Parse expands ${VAR} references in raw and decodes the documents it
// holds. name prefixes each document's Source. Empty documents are skipped.
func Parse(raw []byte, name string) ([]Document, error) {
	expanded, err := config.ExpandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	var docs []Document
	for i := 1; ; i++ {
		var fields map[string]any
		err := dec.Decode(&fields)
		if errors.Is(err, io.EOF) {
			break
		}
		source := fmt.Sprintf("%s#%d", name, i)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, source, err)
		}
		if fields == nil {
			continue
		}
		doc, err := newDocument(fields, source)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func newDocument(fields map[string]any, source string) (Document, error) {
	raw, ok := fields["method"]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrMissingMethod, source)
	}
	method, ok := raw.(string)
	if !ok || method == "" {
		return Document{}, fmt.Errorf("%w: %s: method must be a non-empty string", ErrMissingMethod, source)
	}
	delete(fields, "method")
	return Document{Method: method, Fields: fields, Source: source}, nil
}
