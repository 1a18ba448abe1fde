package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"

	"github.com/servar-dev/servar/internal/instrumentation"
	"github.com/servar-dev/servar/internal/logging"
	"github.com/servar-dev/servar/internal/server"
)

// ToolFunc implements a tool. The returned value is encoded as the JSON
// result; a returned error becomes an error result.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// InstrumentedToolHandler adapts fn to an MCP handler. Each call runs in a
// tool.<name> span, is counted in the tool metrics and is written to the
// audit log. Errors are classified and returned as error results, never as
// Go errors.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("gmail_list_unread", "gmail", "list", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	fn ToolFunc,
) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		args := request.GetArguments()
		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithService(serviceName, operation).
			WithArguments(args)

		result, err := call(ctx, fn, args)
		duration := time.Since(start)

		metrics := sc.Metrics()
		if err != nil {
			kind := Classify(err)
			instrumentation.SetSpanError(span, err)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrErrorKind, string(kind)))
			invocation.CompleteWithError(string(kind), err)
			metrics.RecordToolInvocation(ctx, toolName, instrumentation.StatusError, duration)
			metrics.RecordToolError(ctx, toolName, string(kind))
			sc.AuditLogger().LogToolInvocation(invocation)

			logging.WithTool(sc.Logger(), toolName).Debug("tool failed",
				logging.Kind(string(kind)), logging.Err(err))
			return ErrorResult(err, kind), nil
		}

		instrumentation.SetSpanSuccess(span)
		invocation.CompleteSuccess()
		metrics.RecordToolInvocation(ctx, toolName, instrumentation.StatusSuccess, duration)
		sc.AuditLogger().LogToolInvocation(invocation)
		return result, nil
	}
}

func call(ctx context.Context, fn ToolFunc, args map[string]any) (*mcp.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	v, err := fn(ctx, args)
	if err != nil {
		return nil, err
	}
	return JSONResult(v)
}
