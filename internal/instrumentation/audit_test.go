package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolInvocation_Success(t *testing.T) {
	ti := NewToolInvocation("gmail_list_unread").
		WithService(ServiceGmail, OperationList).
		WithArguments(map[string]any{"limit": 5, "markRead": false})

	ti.CompleteSuccess()

	assert.True(t, ti.Success)
	assert.Equal(t, StatusSuccess, ti.Status())
	assert.GreaterOrEqual(t, ti.Duration.Nanoseconds(), int64(0))
	assert.Equal(t, []string{"limit", "markRead"}, ti.ArgumentNames)
	assert.Empty(t, ti.ErrorKind)
}

func TestToolInvocation_Error(t *testing.T) {
	ti := NewToolInvocation("drive_read_file_content").
		CompleteWithError("limit", errors.New("content exceeds 10 bytes"))

	assert.False(t, ti.Success)
	assert.Equal(t, StatusError, ti.Status())
	assert.Equal(t, "limit", ti.ErrorKind)
	assert.Equal(t, "content exceeds 10 bytes", ti.Error)
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("gmail_read_message").
		WithService(ServiceGmail, OperationGet).
		WithArguments(map[string]any{"id": "abc"})
	ti.CompleteSuccess()

	keys := func(attrs []slog.Attr) map[string]bool {
		out := map[string]bool{}
		for _, a := range attrs {
			out[a.Key] = true
		}
		return out
	}

	without := keys(ti.LogAttrs(false))
	assert.True(t, without["tool"])
	assert.True(t, without["service"])
	assert.True(t, without["operation"])
	assert.False(t, without["arguments"])
	assert.False(t, without["error"])

	with := keys(ti.LogAttrs(true))
	assert.True(t, with["arguments"])
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	audit := NewAuditLogger(logger)

	audit.LogToolInvocation(NewToolInvocation("classroom_list_courses").CompleteSuccess())
	audit.LogToolInvocation(NewToolInvocation("gmail_list_spam").CompleteWithError("auth", errors.New("no token")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ok, failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))

	assert.Equal(t, "tool_executed", ok["msg"])
	assert.Equal(t, "INFO", ok["level"])
	assert.Equal(t, "audit", ok["component"])

	assert.Equal(t, "tool_failed", failed["msg"])
	assert.Equal(t, "WARN", failed["level"])
	assert.Equal(t, "auth", failed["kind"])
	assert.Equal(t, "no token", failed["error"])
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	audit := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})

	audit.LogToolInvocation(NewToolInvocation("gmail_mark_read").CompleteSuccess())
	assert.Empty(t, buf.String())

	var nilAudit *AuditLogger
	nilAudit.LogToolInvocation(NewToolInvocation("gmail_mark_read").CompleteSuccess())
}
