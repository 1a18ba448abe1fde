// Package server holds the state shared by tool handlers and the HTTP
// surfaces of servar.
//
// ServerContext owns one lazily built client per Google provider (mail,
// storage, courses). A client is built on first use by acquiring the
// provider's OAuth token, running the browser consent flow if the token file
// is missing. Construction is serialized per provider and failures are not
// cached, so a later call retries. Warm builds every client up front.
//
// HTTPServer serves the MCP streamable HTTP transport at /mcp together with
// the /healthz, /readyz and /healthz/detailed endpoints of HealthChecker.
// MetricsServer exposes Prometheus metrics on a separate address.
package server
