// Package main is the entry point for the tgapi CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/flemzord/tgapi/internal/config"
	"github.com/flemzord/tgapi/internal/document"
	"github.com/flemzord/tgapi/internal/security"
	"github.com/spf13/cobra"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tgapi",
		Short:         "Build, validate and serve Telegram Bot API request payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.AddCommand(versionCmd(), encodeCmd(), validateCmd(), serveCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and supported methods",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tgapi %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintln(out, "\nSupported methods:")
			for _, m := range document.Methods() {
				fmt.Fprintf(out, "  %s\n", m)
			}
		},
	}
}

// env is what every command needs after the root flags are parsed.
type env struct {
	cfg      *config.Config
	cfgPath  string
	defaults document.Defaults
	redactor *security.Redactor
	logger   *slog.Logger
}

// loadEnv resolves and validates the configuration, then builds the
// redacting logger on stderr.
func loadEnv(cmd *cobra.Command) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, path, err := config.Resolve(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	defaults, err := document.DefaultsFrom(cfg.Defaults)
	if err != nil {
		return nil, err
	}

	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := parseLevel(levelName)
	if err != nil {
		return nil, err
	}

	redactor := security.NewRedactor()
	redactor.AddLiteral(cfg.Redact.Literals...)

	return &env{
		cfg:      cfg,
		cfgPath:  path,
		defaults: defaults,
		redactor: redactor,
		logger:   newLogger(cmd.ErrOrStderr(), level, redactor),
	}, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return level, nil
}

func newLogger(w io.Writer, level slog.Level, redactor *security.Redactor) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(security.NewRedactingHandler(inner, redactor))
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), security.DefaultMaxBodySize+1))
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		if err := security.ValidateBodySize(data, security.DefaultMaxBodySize); err != nil {
			return nil, "", fmt.Errorf("stdin: %w", err)
		}
		return data, "stdin", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, path, nil
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+prefix)
}
