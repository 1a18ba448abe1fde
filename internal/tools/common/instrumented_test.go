package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servar-dev/servar/internal/config"
	"github.com/servar-dev/servar/internal/drive"
	"github.com/servar-dev/servar/internal/instrumentation"
	"github.com/servar-dev/servar/internal/server"
)

func newServerContext(t *testing.T, opts ...server.Option) *server.ServerContext {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.MailCredsPath = filepath.Join(dir, "creds.json")
	cfg.StorageCredsPath = cfg.MailCredsPath
	cfg.CourseCredsPath = cfg.MailCredsPath
	cfg.MailTokenPath = filepath.Join(dir, "mail.json")
	cfg.StorageTokenPath = filepath.Join(dir, "storage.json")
	cfg.CourseTokenPath = filepath.Join(dir, "courses.json")

	sc, err := server.NewServerContext(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "test_tool", Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", result.Content[0])
		return ""
	}
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newServerContext(t)

	called := false
	handler := InstrumentedToolHandler("test_tool", "gmail", "list", sc,
		func(_ context.Context, args map[string]any) (any, error) {
			called = true
			return map[string]string{"id": "m1"}, nil
		})

	result, err := handler(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"id": "m1"}`, resultText(t, result))
}

func TestInstrumentedToolHandler_ErrorBecomesResult(t *testing.T) {
	sc := newServerContext(t)

	handler := InstrumentedToolHandler("test_tool", "drive", "get", sc,
		func(context.Context, map[string]any) (any, error) {
			return nil, fmt.Errorf("file f1: %w", drive.ErrContentTooLarge)
		})

	result, err := handler(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var record map[string]string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &record))
	assert.Equal(t, "limit", record["kind"])
	assert.Contains(t, record["error"], "exceeds size limit")
}

func TestInstrumentedToolHandler_NilArgumentsAreEmpty(t *testing.T) {
	sc := newServerContext(t)

	handler := InstrumentedToolHandler("test_tool", "gmail", "list", sc,
		func(_ context.Context, args map[string]any) (any, error) {
			return IntArg(args, "limit", 5)
		})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Equal(t, "5", resultText(t, result))
}

func TestInstrumentedToolHandler_AuditLog(t *testing.T) {
	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	sc := newServerContext(t, server.WithAuditLogger(audit))

	handler := InstrumentedToolHandler("test_tool", "classroom", "list", sc,
		func(context.Context, map[string]any) (any, error) {
			return nil, &ArgumentError{Name: "id", Reason: "is required"}
		})

	_, err := handler(context.Background(), callRequest(map[string]any{"id": 1}))
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tool_failed", entry["msg"])
	assert.Equal(t, "test_tool", entry["tool"])
	assert.Equal(t, "classroom", entry["service"])
	assert.Equal(t, "invalid_argument", entry["kind"])
	assert.Equal(t, false, entry["success"])
}

func TestInstrumentedToolHandler_WithMetrics(t *testing.T) {
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:     "test",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterStdout,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	sc := newServerContext(t, server.WithMetrics(provider.Metrics()))

	handler := InstrumentedToolHandler("test_tool", "gmail", "get", sc,
		func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("boom")
		})

	result, err := handler(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
