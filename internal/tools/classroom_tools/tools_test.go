package classroom_tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/servar-dev/servar/internal/classroom/classroomtest"
	"github.com/servar-dev/servar/internal/config"
	"github.com/servar-dev/servar/internal/google"
	"github.com/servar-dev/servar/internal/server"
)

func newServer(t *testing.T, opts ...server.Option) *mcpserver.MCPServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.CourseCredsPath = filepath.Join(dir, "creds.json")
	cfg.CourseTokenPath = filepath.Join(dir, "courses.json")

	sc, err := server.NewServerContext(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterClassroomTools(s, sc))
	return s
}

func withFake(fake *classroomtest.Server) server.Option {
	return server.WithClientOptions(func(context.Context, google.Provider) ([]option.ClientOption, error) {
		return fake.ClientOptions(), nil
	})
}

func listCourses(t *testing.T, s *mcpserver.MCPServer) (string, bool) {
	t.Helper()
	tool, ok := s.ListTools()["classroom_list_courses"]
	require.True(t, ok)

	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "classroom_list_courses"},
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

func TestListCourses(t *testing.T) {
	fake := classroomtest.NewServer(t, "Algebra", "Biology", "Chemistry")
	s := newServer(t, withFake(fake))

	text, isErr := listCourses(t, s)
	require.False(t, isErr, text)
	assert.JSONEq(t, `{"courses": ["Algebra", "Biology", "Chemistry"]}`, text)

	// Every call follows all pages.
	_, _ = listCourses(t, s)
	assert.Equal(t, 4, fake.Calls())
}

func TestListCourses_Empty(t *testing.T) {
	s := newServer(t, withFake(classroomtest.NewServer(t)))

	text, isErr := listCourses(t, s)
	require.False(t, isErr, text)
	assert.JSONEq(t, `{"courses": []}`, text)
}

func TestListCourses_MissingToken(t *testing.T) {
	s := newServer(t, server.WithHandshaker(nil))

	text, isErr := listCourses(t, s)
	assert.True(t, isErr)
	assert.Contains(t, text, `"kind":"auth"`)
}
