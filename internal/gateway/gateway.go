// Package gateway serves the payload builder over HTTP. Documents posted
// to /v1 are rendered or validated, and counters are exported for
// Prometheus.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flemzord/tgapi/internal/cron"
	"github.com/flemzord/tgapi/internal/document"
	"github.com/flemzord/tgapi/internal/security"
)

// Options are the collaborators of a Gateway. Zero values are replaced
// with working defaults.
type Options struct {
	Logger   *slog.Logger
	Defaults document.Defaults
	Redactor *security.Redactor
	// Audit receives security events. Nil disables auditing.
	Audit *security.AuditLogger
}

// Gateway is the HTTP front end.
type Gateway struct {
	config    Config
	logger    *slog.Logger
	defaults  atomic.Pointer[document.Defaults]
	redactor  *security.Redactor
	audit     *security.AuditLogger
	limiter   *security.RateLimiter
	metrics   *Metrics
	scheduler *cron.Scheduler
	startedAt time.Time

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New creates a gateway. cfg is expected to come from Configure.
func New(cfg Config, opts Options) *Gateway {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Redactor == nil {
		opts.Redactor = security.NewRedactor()
	}
	cfg.defaults()
	g := &Gateway{
		config:    cfg,
		logger:    opts.Logger,
		redactor:  opts.Redactor,
		audit:     opts.Audit,
		limiter:   security.NewRateLimiter(cfg.RateLimit),
		metrics:   NewMetrics(),
		startedAt: time.Now(),
	}
	g.SetDefaults(opts.Defaults)
	if cfg.Check.Dir != "" {
		g.scheduler = cron.NewScheduler(opts.Logger)
		// A fresh scheduler has no jobs, so registration cannot fail.
		_ = g.scheduler.RegisterJob(&cron.DocumentCheckJob{
			Dir:          cfg.Check.Dir,
			Defaults:     g.Defaults,
			Logger:       opts.Logger,
			ScheduleExpr: cfg.Check.Schedule,
			Report:       g.metrics.RecordCheck,
		})
	}
	return g
}

// SetDefaults replaces the document defaults used by later requests and
// check runs. Requests already in flight keep the previous value.
func (g *Gateway) SetDefaults(d document.Defaults) {
	g.defaults.Store(&d)
}

// Defaults returns the document defaults currently in effect.
func (g *Gateway) Defaults() document.Defaults {
	return *g.defaults.Load()
}

// Metrics returns the gateway's counters.
func (g *Gateway) Metrics() *Metrics { return g.metrics }

// Handler returns the routed HTTP handler, for embedding or tests.
func (g *Gateway) Handler() http.Handler {
	return g.buildRouter()
}

// Start listens on the configured address and serves in the background.
// It returns once the listener is open.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.server != nil {
		return errors.New("gateway: already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	if g.scheduler != nil {
		if err := g.scheduler.Start(context.WithoutCancel(ctx)); err != nil {
			_ = ln.Close()
			return err
		}
		go g.scheduler.Trigger("document_check")
	}

	g.startedAt = time.Now()
	g.addr = ln.Addr()
	g.server = &http.Server{
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(g.logger.Handler(), slog.LevelWarn),
	}

	srv := g.server
	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Addr returns the address the gateway listens on, or nil before Start.
func (g *Gateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	srv := g.server
	g.server = nil
	g.mu.Unlock()

	if srv == nil {
		return nil
	}
	if g.scheduler != nil {
		_ = g.scheduler.Stop(ctx)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return srv.Shutdown(shutdownCtx)
}
