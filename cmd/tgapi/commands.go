package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/flemzord/tgapi/internal/document"
	"github.com/flemzord/tgapi/internal/gateway"
	"github.com/flemzord/tgapi/internal/reload"
	"github.com/flemzord/tgapi/internal/security"
	"github.com/flemzord/tgapi/pkg/botapi"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errValidation is returned by validate once the per-file report is
// printed, so main only sets the exit code.
var errValidation = errors.New("validation failed")

func encodeCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "encode <file|->",
		Short: "Print the wire projection of every document in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains([]string{"json", "form"}, format) {
				return fmt.Errorf("invalid --format %q (want json or form)", format)
			}
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			raw, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			docs, err := document.Parse(raw, name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, doc := range docs {
				p, err := document.Build(doc, e.defaults)
				if err != nil {
					return err
				}
				e.logger.Debug("encoded document", "source", doc.Source, "method", p.Method())

				switch format {
				case "form":
					values, err := botapi.FormValues(p)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s %s\n", p.Method(), values.Encode())
				default:
					data, err := botapi.Marshal(p)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s %s\n", p.Method(), data)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or form")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|dir>...",
		Short: "Check that documents build into valid payloads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			var total document.CheckResult
			for _, arg := range args {
				res, err := checkPath(cmd.Context(), arg, e.defaults)
				if err != nil {
					return err
				}
				total.Files += res.Files
				total.Valid += res.Valid
				total.Passed = append(total.Passed, res.Passed...)
				total.Failures = append(total.Failures, res.Failures...)
			}

			out := cmd.OutOrStdout()
			for _, path := range total.Passed {
				fmt.Fprintf(out, "ok %s\n", path)
			}
			for _, f := range total.Failures {
				fmt.Fprintf(out, "FAIL %s\n%s\n", f.Source, indent(e.redactor.Redact(f.Err.Error()), "  "))
			}
			fmt.Fprintf(out, "%d file(s), %d valid, %d invalid\n", total.Files, total.Valid, total.Invalid())
			if !total.OK() {
				return errValidation
			}
			return nil
		},
	}
}

func checkPath(ctx context.Context, path string, defaults document.Defaults) (document.CheckResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return document.CheckResult{}, err
	}
	if info.IsDir() {
		return document.CheckDir(ctx, path, defaults)
	}
	return document.CheckFile(path, defaults), nil
}

func serveCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway until interrupted",
		Long: `Run the HTTP gateway until interrupted.

When a configuration file is in use, SIGHUP re-reads its defaults and
redact sections. With --watch the file is also polled for changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			gcfg, err := gateway.Configure(&e.cfg.Gateway)
			if err != nil {
				return err
			}
			if err := gcfg.Validate(); err != nil {
				return err
			}
			e.redactor.AddLiteral(gcfg.BearerToken)

			if e.cfgPath != "" {
				e.logger.Info("configuration loaded", "path", e.cfgPath)
			}

			audit, closeAudit, err := openAudit(gcfg.AuditLog, e.redactor)
			if err != nil {
				return err
			}
			defer closeAudit()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gw := gateway.New(gcfg, gateway.Options{
				Logger:   e.logger,
				Defaults: e.defaults,
				Redactor: e.redactor,
				Audit:    audit,
			})
			if err := gw.Start(ctx); err != nil {
				return err
			}

			if e.cfgPath != "" {
				startReload(ctx, e, gw, audit, watch)
			}

			<-ctx.Done()
			e.logger.Info("shutdown signal received")
			return gw.Stop(context.WithoutCancel(ctx))
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload when the configuration file changes")
	return cmd
}

// startReload applies configuration changes until ctx is done.
func startReload(ctx context.Context, e *env, gw *gateway.Gateway, audit *security.AuditLogger, watch bool) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	context.AfterFunc(ctx, func() { signal.Stop(hup) })

	var events <-chan reload.Event
	if watch {
		w := reload.NewWatcher(reload.WatcherConfig{ConfigPath: e.cfgPath})
		w.Start(ctx)
		events = w.Events()
	}

	h := reload.NewHandler(gw, e.redactor, audit, e.logger)
	go h.Run(ctx, e.cfgPath, events, hup)
}

// openAudit opens the audit log for appending. An empty path yields a nil
// logger, which drops events.
func openAudit(path string, redactor *security.Redactor) (*security.AuditLogger, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening audit log: %w", err)
	}
	audit := security.NewAuditLogger(security.AuditLoggerConfig{Writer: f, Redactor: redactor})
	return audit, func() { _ = f.Close() }, nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	var show bool
	check := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration, optionally printing it with secrets masked",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("config", args[0]); err != nil {
					return err
				}
			}
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			gcfg, err := gateway.Configure(&e.cfg.Gateway)
			if err != nil {
				return err
			}
			if err := gcfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := e.cfgPath
			if source == "" {
				source = "built-in defaults"
			}
			fmt.Fprintf(out, "Configuration OK (%s)\n", source)
			if !show {
				return nil
			}

			masked, err := maskedConfig(e, gcfg)
			if err != nil {
				return err
			}
			return yaml.NewEncoder(out).Encode(masked)
		},
	}
	check.Flags().BoolVar(&show, "show", false, "Print the effective configuration")
	cmd.AddCommand(check)
	return cmd
}

// maskedConfig renders the effective configuration as a generic map with
// secret-looking values replaced.
func maskedConfig(e *env, gcfg gateway.Config) (map[string]any, error) {
	effective := struct {
		Version  string         `yaml:"version"`
		Defaults any            `yaml:"defaults"`
		Gateway  gateway.Config `yaml:"gateway"`
		Redact   any            `yaml:"redact"`
	}{e.cfg.Version, e.cfg.Defaults, gcfg, e.cfg.Redact}

	data, err := yaml.Marshal(effective)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	e.redactor.RedactMap(m)
	if redact, ok := m["redact"].(map[string]any); ok {
		if lits, ok := redact["literals"].([]any); ok {
			redact["literals"] = fmt.Sprintf("%d literal(s)", len(lits))
		}
	}
	return m, nil
}
