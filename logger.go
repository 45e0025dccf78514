package claudesdk

import (
	"io"
	"log/slog"
)

// NopLogger discards everything written to it. WithClient and Query fall
// back to this when no WithLogger option is given, so internal logging
// calls never need a nil check.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
