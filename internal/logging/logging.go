// Package logging configures the process-wide slog logger. Builds tagged
// prod write rotating log files; other builds log to stderr so that stdout
// stays free for command output.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config holds logging options.
type Config struct {
	Level slog.Level
	// Dir is where prod builds write datalens.log. Empty means DefaultDir().
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig returns warn-level logging with modest rotation.
func DefaultConfig() *Config {
	return &Config{
		Level:      slog.LevelWarn,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// DefaultDir returns <user config dir>/datalens/logs, falling back to the
// cache and temp directories.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		if dir, err = os.UserCacheDir(); err != nil {
			dir = os.TempDir()
		}
	}
	return filepath.Join(dir, "datalens", "logs")
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	v := strings.TrimSpace(strings.ToLower(s))
	if v == "warning" {
		v = "warn"
	}
	if err := l.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

var global *slog.Logger

// L returns the logger installed by Setup, or slog.Default.
func L() *slog.Logger {
	if global != nil {
		return global
	}
	return slog.Default()
}

func install(l *slog.Logger) {
	global = l
	slog.SetDefault(l)
}

type ctxKey struct{}

// With returns a context carrying logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the context's logger, or L().
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return L()
}

// WithAttrs returns a context whose logger carries args.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	return With(ctx, From(ctx).With(args...))
}
