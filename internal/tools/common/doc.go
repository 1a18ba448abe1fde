// Package common holds the pieces every MCP tool handler shares: argument
// parsing, JSON results, the error record returned on failure and the
// instrumentation wrapper that records metrics, spans and audit entries.
//
// Failures never cross the tool boundary as Go errors. A handler returns an
// error and InstrumentedToolHandler turns it into a result with IsError set
// and a body of the form
//
//	{"error": "<message>", "kind": "<kind>"}
//
// where kind is one of auth, remote, decode, invalid_argument or limit.
package common
