package logging

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// Common log attribute keys used across packages.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyProvider  = "provider"
	KeyTool      = "tool"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyKind      = "kind"
	KeyPath      = "path"
)

// Status values. Kept in sync with the instrumentation package, which
// imports this one.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithProvider returns a logger scoped to one credential provider (mail, storage, courses).
func WithProvider(logger *slog.Logger, provider string) *slog.Logger {
	return logger.With(slog.String(KeyProvider, provider))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Service returns a slog attribute for the Google service name.
func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

// Provider returns a slog attribute for the credential provider.
func Provider(p string) slog.Attr {
	return slog.String(KeyProvider, p)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Kind returns a slog attribute for an error kind reported to tool callers.
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// Err returns a slog attribute for an error.
// A nil error yields an empty group, which slog omits from output.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// Path returns a slog attribute for a file path, reduced to its base name
// so home directories do not leak into logs.
func Path(p string) slog.Attr {
	if p == "" {
		return slog.String(KeyPath, "")
	}
	return slog.String(KeyPath, filepath.Base(p))
}

// SanitizeToken returns a masked version of a token for logging.
// Only the length is kept; no token content is exposed.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
