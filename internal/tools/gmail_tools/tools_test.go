package gmail_tools

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/servar-dev/servar/internal/config"
	"github.com/servar-dev/servar/internal/gmail"
	"github.com/servar-dev/servar/internal/gmail/gmailtest"
	"github.com/servar-dev/servar/internal/google"
	"github.com/servar-dev/servar/internal/server"
)

type testEnv struct {
	fake *gmailtest.Server
	mcp  *mcpserver.MCPServer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := gmailtest.NewServer(t)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.MailCredsPath = filepath.Join(dir, "creds.json")
	cfg.MailTokenPath = filepath.Join(dir, "mail.json")

	sc, err := server.NewServerContext(context.Background(), cfg,
		server.WithClientOptions(func(context.Context, google.Provider) ([]option.ClientOption, error) {
			return fake.ClientOptions(), nil
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterGmailTools(s, sc))
	return &testEnv{fake: fake, mcp: s}
}

func (e *testEnv) call(t *testing.T, name string, args map[string]any) (string, bool) {
	t.Helper()
	tool, ok := e.mcp.ListTools()[name]
	require.True(t, ok, "tool %s not registered", name)

	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text, result.IsError
	case *mcp.TextContent:
		return c.Text, result.IsError
	}
	t.Fatalf("unexpected content type %T", result.Content[0])
	return "", false
}

func decodeSummaries(t *testing.T, text string) []gmail.MessageSummary {
	t.Helper()
	var out []gmail.MessageSummary
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func decodeError(t *testing.T, text string) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func TestRegisterGmailTools(t *testing.T) {
	env := newTestEnv(t)

	tools := env.mcp.ListTools()
	for _, name := range []string{
		"gmail_list_unread",
		"gmail_read_message",
		"gmail_list_read",
		"gmail_list_spam",
		"gmail_mark_read",
	} {
		assert.Contains(t, tools, name)
	}
	assert.Len(t, tools, 5)
}

func TestListUnread_MarksReadByDefault(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddMessage(gmailtest.Message("m1", "Hello", "alice@example.com", "hi", "INBOX", "UNREAD"))
	env.fake.AddMessage(gmailtest.Message("m2", "", "", "no headers", "INBOX", "UNREAD"))

	text, isErr := env.call(t, "gmail_list_unread", nil)
	require.False(t, isErr, text)

	got := decodeSummaries(t, text)
	require.Len(t, got, 2)
	assert.Equal(t, gmail.MessageSummary{ID: "m1", Subject: "Hello", From: "alice@example.com", Snippet: "hi"}, got[0])
	assert.Equal(t, "(No Subject)", got[1].Subject)
	assert.Equal(t, "Unknown", got[1].From)

	assert.NotContains(t, env.fake.Labels("m1"), "UNREAD")

	text, isErr = env.call(t, "gmail_list_unread", nil)
	require.False(t, isErr, text)
	assert.Empty(t, decodeSummaries(t, text))
}

func TestListUnread_WithoutMarkRead(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddMessage(gmailtest.Message("m1", "Hello", "alice@example.com", "hi", "INBOX", "UNREAD"))

	text, _ := env.call(t, "gmail_list_unread", map[string]any{"markRead": false})
	assert.Len(t, decodeSummaries(t, text), 1)
	assert.Contains(t, env.fake.Labels("m1"), "UNREAD")
	assert.Zero(t, env.fake.Calls("modify"))
}

func TestListUnread_Limit(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"} {
		env.fake.AddMessage(gmailtest.Message(id, "s", "f", "b", "INBOX", "UNREAD"))
	}

	tests := []struct {
		limit any
		want  int
	}{
		{limit: nil, want: 5},
		{limit: float64(2), want: 2},
		{limit: float64(0), want: 0},
		{limit: float64(-1), want: 0},
	}
	for _, tt := range tests {
		args := map[string]any{"markRead": false}
		if tt.limit != nil {
			args["limit"] = tt.limit
		}
		text, isErr := env.call(t, "gmail_list_unread", args)
		require.False(t, isErr, text)
		assert.Len(t, decodeSummaries(t, text), tt.want, "limit %v", tt.limit)
	}
}

func TestListUnread_InvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	text, isErr := env.call(t, "gmail_list_unread", map[string]any{"limit": "ten"})
	assert.True(t, isErr)
	assert.Equal(t, "invalid_argument", decodeError(t, text)["kind"])
	assert.Zero(t, env.fake.Calls("list"))
}

func TestReadMessage(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddMessage(gmailtest.Message("m1", "Hello", "alice@example.com", "hello", "INBOX"))

	text, isErr := env.call(t, "gmail_read_message", map[string]any{"id": "m1"})
	require.False(t, isErr, text)

	var detail gmail.MessageDetail
	require.NoError(t, json.Unmarshal([]byte(text), &detail))
	assert.Equal(t, gmail.MessageDetail{Subject: "Hello", From: "alice@example.com", Body: "hello"}, detail)
}

func TestReadMessage_Errors(t *testing.T) {
	env := newTestEnv(t)

	text, isErr := env.call(t, "gmail_read_message", nil)
	assert.True(t, isErr)
	assert.Equal(t, "invalid_argument", decodeError(t, text)["kind"])

	text, isErr = env.call(t, "gmail_read_message", map[string]any{"id": "missing"})
	assert.True(t, isErr)
	assert.Equal(t, "remote", decodeError(t, text)["kind"])

	env.fake.FailWith(http.StatusUnauthorized)
	text, isErr = env.call(t, "gmail_read_message", map[string]any{"id": "m1"})
	assert.True(t, isErr)
	assert.Equal(t, "auth", decodeError(t, text)["kind"])
}

func TestListRead_SkipsUnread(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddMessage(gmailtest.Message("m1", "read", "a", "b", "INBOX"))
	env.fake.AddMessage(gmailtest.Message("m2", "unread", "a", "b", "INBOX", "UNREAD"))
	env.fake.AddMessage(gmailtest.Message("m3", "read too", "a", "b", "INBOX"))

	text, isErr := env.call(t, "gmail_list_read", map[string]any{"limit": float64(2)})
	require.False(t, isErr, text)

	got := decodeSummaries(t, text)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestListSpam(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddMessage(gmailtest.Message("s1", "Win", "spam@example.com", "prize", "SPAM", "UNREAD"))
	env.fake.AddMessage(gmailtest.Message("m1", "Hello", "a", "b", "INBOX"))

	text, isErr := env.call(t, "gmail_list_spam", nil)
	require.False(t, isErr, text)

	got := decodeSummaries(t, text)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.Contains(t, env.fake.Labels("s1"), "UNREAD")
	assert.Zero(t, env.fake.Calls("modify"))
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddMessage(gmailtest.Message("m1", "Hello", "a", "b", "INBOX", "UNREAD"))

	text, isErr := env.call(t, "gmail_mark_read", map[string]any{"id": "m1"})
	require.False(t, isErr, text)
	assert.JSONEq(t, `{"id": "m1", "status": "read"}`, text)
	assert.Equal(t, []string{"INBOX"}, env.fake.Labels("m1"))
}
