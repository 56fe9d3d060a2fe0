//go:build !prod

package logging

import (
	"log/slog"
	"os"
)

// Setup installs a text logger on stderr. The returned close func is a no-op.
func Setup(cfg *Config) (*slog.Logger, func() error, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level}))
	install(l)
	return l, func() error { return nil }, nil
}
