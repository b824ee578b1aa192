package config

import (
	"errors"
	"fmt"

	"github.com/flemzord/tgapi/pkg/botapi"
)

// Validate checks the structural validity of a Config.
// It verifies the version field, the document defaults and the redaction
// settings. The gateway section is checked by the gateway package.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateDefaults(cfg.Defaults)...)
	errs = append(errs, validateRedact(cfg.Redact)...)

	return errors.Join(errs...)
}

func validateDefaults(d DefaultsConfig) []error {
	if d.ParseMode == "" {
		return nil
	}
	if _, err := botapi.ParseParseMode(d.ParseMode); err != nil {
		return []error{fmt.Errorf("config: defaults.parse_mode: %w", err)}
	}
	return nil
}

func validateRedact(r RedactConfig) []error {
	var errs []error
	for i, lit := range r.Literals {
		if lit == "" {
			errs = append(errs, fmt.Errorf("config: redact.literals[%d]: empty value", i))
		}
	}
	return errs
}
