// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for tgapi.
package config

import "gopkg.in/yaml.v3"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Defaults are applied to documents that leave the corresponding
	// fields out.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Gateway is the raw gateway section, decoded by gateway.Configure.
	Gateway yaml.Node `yaml:"gateway"`

	// Redact lists extra values scrubbed from log output.
	Redact RedactConfig `yaml:"redact"`
}

// DefaultsConfig holds document-level defaults for text payloads.
type DefaultsConfig struct {
	// ParseMode is one of Markdown, MarkdownV2 or HTML. Empty means plain text.
	ParseMode string `yaml:"parse_mode"`

	// DisableWebPagePreview is left unset when nil.
	DisableWebPagePreview *bool `yaml:"disable_web_page_preview"`
}

// RedactConfig configures log redaction.
type RedactConfig struct {
	// Literals are exact strings replaced in every log record.
	Literals []string `yaml:"literals,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{Version: "1"}
}
