package gateway

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/flemzord/tgapi/internal/cron"
	"github.com/flemzord/tgapi/internal/security"
	"gopkg.in/yaml.v3"
)

// Config holds HTTP gateway configuration.
type Config struct {
	Bind            string        `yaml:"bind"`
	BearerToken     string        `yaml:"bearer_token"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	// AuditLog is a file that receives security events as JSON lines.
	// Empty disables the audit trail.
	AuditLog string `yaml:"audit_log"`

	RateLimit security.RateLimitConfig `yaml:"rate_limit"`
	Check     CheckConfig              `yaml:"check"`
}

// CheckConfig enables the periodic document check. It is off when Dir is
// empty.
type CheckConfig struct {
	Dir      string `yaml:"dir"`
	Schedule string `yaml:"schedule"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8089"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = security.DefaultMaxBodySize
	}
	if c.Check.Dir != "" && c.Check.Schedule == "" {
		c.Check.Schedule = cron.DefaultCheckSchedule
	}
}

// Configure decodes the gateway section of the configuration file and
// applies defaults. A zero node yields the default configuration.
func Configure(node *yaml.Node) (Config, error) {
	var cfg Config
	if node != nil && !node.IsZero() {
		if err := node.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("gateway: decoding config: %w", err)
		}
	}
	cfg.defaults()
	return cfg, nil
}

// Validate checks the configuration after defaults were applied.
func (c Config) Validate() error {
	var errs []error
	if _, err := net.ResolveTCPAddr("tcp", c.Bind); err != nil {
		errs = append(errs, fmt.Errorf("gateway: invalid bind address %q: %w", c.Bind, err))
	}
	if c.Check.Dir != "" {
		if err := cron.ValidateSchedule(c.Check.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("gateway: check.schedule: %w", err))
		}
	}
	return errors.Join(errs...)
}
