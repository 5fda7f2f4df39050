package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Text output to stdout keeps
// local development readable; production log shippers parse key=value fields.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
