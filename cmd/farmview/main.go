// Command farmview mirrors a farm simulation's event stream into a live
// terminal view and sends purchase and control commands back.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"farmview.ai/internal/config"
	"farmview.ai/internal/observability"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// app is what PersistentPreRunE resolves for the subcommands.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	sessionID string
	tty       bool
}

type appKey struct{}

func appFrom(ctx context.Context) *app {
	if a, ok := ctx.Value(appKey{}).(*app); ok {
		return a
	}
	cfg := config.Defaults()
	cfg.Normalize()
	return &app{cfg: cfg, logger: observability.Discard()}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		endpoint   string
		noColor    bool
		logLevel   string
		logFormat  string
		logFile    string
		logStderr  string
	)

	rootCmd := &cobra.Command{
		Use:           "farmview",
		Short:         "Live view and control client for the farm simulation",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if endpoint != "" {
				cfg.Endpoint.URL = endpoint
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			if logFile != "" {
				cfg.Log.File = logFile
			}
			cfg.Normalize()
			if err := cfg.Validate(); err != nil {
				return err
			}

			tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
			if noColor || !tty || os.Getenv("NO_COLOR") != "" {
				color.NoColor = true
			}

			sessionID := uuid.NewString()
			logger, cleanup, err := observability.NewLogger(&observability.Config{
				Level:          cfg.Log.Level,
				Format:         cfg.Log.Format,
				File:           cfg.Log.File,
				StderrMode:     logStderr,
				InteractiveTTY: tty && cmd.Name() == "watch",
				SessionID:      sessionID,
				CommandPath:    cmd.CommandPath(),
				Version:        version,
			})
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			if cleanup != nil {
				prev := cmd.PostRunE
				cmd.PostRunE = func(cmd *cobra.Command, args []string) error {
					var err error
					if prev != nil {
						err = prev(cmd, args)
					}
					if cerr := cleanup(); cerr != nil && err == nil {
						err = cerr
					}
					return err
				}
			}

			a := &app{cfg: cfg, logger: logger, sessionID: sessionID, tty: tty}
			ctx := observability.WithLogger(cmd.Context(), logger)
			cmd.SetContext(context.WithValue(ctx, appKey{}, a))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Simulation websocket URL (overrides endpoint.* in the config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error, warn, info, debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json, text")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Structured log file path")
	rootCmd.PersistentFlags().StringVar(&logStderr, "log-stderr", "", "Structured logging to stderr: auto, on, off")

	rootCmd.SuggestionsMinimumDistance = 2

	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newReplayCmd())
	return rootCmd
}
