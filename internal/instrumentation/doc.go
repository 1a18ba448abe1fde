// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the servar MCP server.
//
// # Metrics
//
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: by tool and status
//   - mcp_tool_errors_total: error results by tool and kind
//   - google_api_operations_total, google_api_operation_duration_seconds
//   - oauth_handshake_total, oauth_token_refresh_total: by provider and result
//   - drive_content_bytes: size of file bodies read from Drive
//   - http_requests_total, http_request_duration_seconds: streamable-http only
//
// # Tracing
//
// Spans are created for tool calls (tool.<name>), Google API calls
// (google.<service>.<operation>) and credential acquisition (oauth.<step>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: servar)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ARGUMENTS
//
// The stdout exporters write to stderr so they never corrupt the stdio transport.
package instrumentation
