// Package security scrubs secrets from log output and from values shown
// to operators.
package security

import (
	"regexp"
	"slices"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches map keys that likely contain secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|api_key|credential)`)

// Redactor replaces secret values in strings and maps with a redaction placeholder.
// It supports both regex pattern matching (for known token formats) and
// literal value matching (for values configured at runtime).
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds literal secret values that should be redacted on sight.
// Empty strings and values already known are ignored.
func (r *Redactor) AddLiteral(secrets ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range secrets {
		if s != "" && !slices.Contains(r.literals, s) {
			r.literals = append(r.literals, s)
		}
	}
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	// Literals first: a configured bot token would otherwise be only
	// partially covered by a pattern match.
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}

	return s
}

// RedactMap walks a map and replaces values whose keys match common secret
// key names (secret, token, password, api_key, credential). String values
// under other keys still go through Redact.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		if secretKeyPattern.MatchString(k) {
			if s, ok := v.(string); ok && s != "" {
				m[k] = RedactPlaceholder
				continue
			}
		}
		switch val := v.(type) {
		case map[string]any:
			r.RedactMap(val)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					r.RedactMap(sub)
				}
			}
		case string:
			if redacted := r.Redact(val); redacted != val {
				m[k] = redacted
			}
		}
	}
}

// DefaultPatterns returns compiled regex patterns for Telegram secrets.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Payment provider token: <id>:TEST:<secret> or <id>:LIVE:<secret>
		regexp.MustCompile(`[0-9]+:(TEST|LIVE):[A-Za-z0-9_\-]+`),
		// Bot token: <bot id>:<35 char secret>, also inside api.telegram.org/bot<token>/ URLs
		regexp.MustCompile(`[0-9]{5,}:[A-Za-z0-9_\-]{30,}`),
		// Stripe keys, the most common payment provider behind Telegram invoices
		regexp.MustCompile(`(sk|rk)_(live|test)_[A-Za-z0-9]{16,}`),
		// Authorization header values
		regexp.MustCompile(`Bearer [A-Za-z0-9._~+/\-]{8,}=*`),
	}
}
