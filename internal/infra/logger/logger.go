package logger

import (
	"io"
	"log/slog"
	"os"
)

const service = "kitchen-quotes"

func New(env string) *slog.Logger {
	return NewWriter(os.Stdout, env)
}

// NewWriter — JSON-логгер в w; в dev уровень debug.
func NewWriter(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service, "env", env)
}
