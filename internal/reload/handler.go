package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/flemzord/tgapi/internal/config"
	"github.com/flemzord/tgapi/internal/document"
	"github.com/flemzord/tgapi/internal/security"
)

// Target receives the reloadable parts of the configuration.
type Target interface {
	SetDefaults(document.Defaults)
}

// Handler applies a changed configuration file. Only document defaults and
// redaction literals are reloaded; gateway settings such as the bind
// address need a restart.
type Handler struct {
	target   Target
	redactor *security.Redactor
	audit    *security.AuditLogger
	logger   *slog.Logger
}

// NewHandler creates a reload handler. redactor and audit may be nil.
func NewHandler(target Target, redactor *security.Redactor, audit *security.AuditLogger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{target: target, redactor: redactor, audit: audit, logger: logger}
}

// HandleReload loads and validates the file at configPath and applies it.
// On any error the running configuration is left untouched. Every attempt
// is recorded in the audit log.
func (h *Handler) HandleReload(ctx context.Context, configPath string) error {
	err := h.reload(ctx, configPath)
	result := "applied"
	if err != nil {
		result = "rejected"
	}
	h.audit.Log(security.AuditEvent{
		Type:     security.EventConfigReload,
		Detail:   configPath,
		Metadata: map[string]string{"result": result},
	})
	return err
}

func (h *Handler) reload(ctx context.Context, configPath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before reload: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	defaults, err := document.DefaultsFrom(cfg.Defaults)
	if err != nil {
		return fmt.Errorf("converting defaults: %w", err)
	}

	// Literals are only ever added: a secret that leaked into a log line
	// once must stay masked even if it is removed from the file.
	if h.redactor != nil {
		h.redactor.AddLiteral(cfg.Redact.Literals...)
	}
	h.target.SetDefaults(defaults)

	h.logger.Info("configuration reloaded", "path", configPath)
	return nil
}

// Run applies a reload for every watcher event and every value received on
// signals, until ctx is done. Failed reloads are logged and do not stop
// the loop.
func (h *Handler) Run(ctx context.Context, configPath string, events <-chan Event, signals <-chan os.Signal) {
	for {
		var path string
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			path = ev.ConfigPath
		case sig := <-signals:
			h.logger.Info("reload requested", "signal", sig.String())
			path = configPath
		}
		if err := h.HandleReload(ctx, path); err != nil {
			h.logger.Error("configuration reload failed", "path", path, "error", err)
		}
	}
}
