package tools

import (
	"log/slog"

	"github.com/usestring/storeadvisor/internal/ingest"
)

// WrapToolError converts a pipeline error into the coded error returned to
// MCP clients, logging it on the way out.
func WrapToolError(err error) error {
	if err == nil {
		return nil
	}
	coded := ingest.Wrap(err)

	slog.Warn("tool call failed",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)
	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return ingest.ErrNotFound(resource, id)
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return ingest.ErrInvalidInput(message)
}
