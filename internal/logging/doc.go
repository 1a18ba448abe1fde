// Package logging provides structured logging helpers for servar.
//
// All packages log through log/slog. This package keeps attribute names
// consistent and builds the process logger from the --log-format and
// --log-level flags.
//
// # Usage
//
//	logger := logging.WithProvider(slog.Default(), "mail")
//	logger.Info("token loaded", logging.Path(tokenPath))
//
// Tokens are never logged directly; use SanitizeToken.
package logging
