package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Handlers and services take *slog.Logger so
// tests can discard output.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
