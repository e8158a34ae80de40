package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const redactedValue = "[REDACTED]"

type contextKey struct{}

type Config struct {
	Level  string
	Format string
	File   string
	// StderrMode is auto, on or off. Auto keeps stderr quiet when a
	// terminal view is running and a log file is configured.
	StderrMode     string
	InteractiveTTY bool
	SessionID      string
	CommandPath    string
	Version        string

	// Stderr overrides os.Stderr.
	Stderr io.Writer
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger from ctx, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewLogger builds the process logger. The returned cleanup closes the
// log file, if any.
func NewLogger(cfg *Config) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	file := strings.TrimSpace(cfg.File)
	stderrEnabled, err := shouldEnableStderr(cfg.StderrMode, cfg.InteractiveTTY, file != "")
	if err != nil {
		return nil, nil, err
	}

	writers := make([]io.Writer, 0, 2)
	closers := make([]io.Closer, 0, 1)
	if stderrEnabled {
		if cfg.Stderr != nil {
			writers = append(writers, cfg.Stderr)
		} else {
			writers = append(writers, os.Stderr)
		}
	}
	if file != "" {
		f, openErr := openLogFile(file)
		if openErr != nil {
			return nil, nil, openErr
		}
		writers = append(writers, f)
		closers = append(closers, f)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	}
	w := io.MultiWriter(writers...)

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, nil, fmt.Errorf("invalid log format: %q (allowed: json, text)", cfg.Format)
	}

	logger := slog.New(handler).With(slog.String("session.id", cfg.SessionID))
	if cfg.CommandPath != "" {
		logger = logger.With(slog.String("command.path", cfg.CommandPath))
	}
	if cfg.Version != "" {
		logger = logger.With(slog.String("cli.version", cfg.Version))
	}

	cleanup := func() error {
		var firstErr error
		for _, c := range closers {
			if closeErr := c.Close(); closeErr != nil && firstErr == nil {
				firstErr = closeErr
			}
		}
		return firstErr
	}
	return logger, cleanup, nil
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q (allowed: error, warn, info, debug)", level)
	}
}

func openLogFile(path string) (*os.File, error) {
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o700); err != nil {
		return nil, fmt.Errorf("create log file directory: %w", err)
	}
	f, err := os.OpenFile(clean, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func shouldEnableStderr(mode string, interactiveTTY, hasFile bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return !(interactiveTTY && hasFile), nil
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --log-stderr value %q (allowed: auto, on, off)", mode)
	}
}

func redactAttr(_ []string, attr slog.Attr) slog.Attr {
	if isSensitiveKey(strings.ToLower(attr.Key)) {
		return slog.String(attr.Key, redactedValue)
	}
	return attr
}

func isSensitiveKey(key string) bool {
	if key == "authorization" {
		return true
	}
	for _, pattern := range []string{"token", "api_key", "apikey", "secret", "credential", "password"} {
		if strings.Contains(key, pattern) {
			return true
		}
	}
	return false
}
