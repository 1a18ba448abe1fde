package drive_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/servar-dev/servar/internal/config"
	"github.com/servar-dev/servar/internal/drive"
	"github.com/servar-dev/servar/internal/drive/drivetest"
	"github.com/servar-dev/servar/internal/google"
	"github.com/servar-dev/servar/internal/server"
)

type testEnv struct {
	fake *drivetest.Server
	mcp  *mcpserver.MCPServer
}

func newTestEnv(t *testing.T, maxContentBytes int64) *testEnv {
	t.Helper()
	fake := drivetest.NewServer(t)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.StorageCredsPath = filepath.Join(dir, "creds.json")
	cfg.StorageTokenPath = filepath.Join(dir, "storage.json")
	if maxContentBytes > 0 {
		cfg.MaxContentBytes = maxContentBytes
	}

	sc, err := server.NewServerContext(context.Background(), cfg,
		server.WithClientOptions(func(context.Context, google.Provider) ([]option.ClientOption, error) {
			return fake.ClientOptions(), nil
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterDriveTools(s, sc))
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

func (e *testEnv) readContent(t *testing.T, fileID string) drive.FileContent {
	t.Helper()
	text, isErr := e.call(t, "drive_read_file_content", map[string]any{"fileId": fileID})
	require.False(t, isErr, text)

	var out drive.FileContent
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func TestListRecentFiles(t *testing.T) {
	env := newTestEnv(t, 0)
	for i, name := range []string{"a.txt", "b.pdf", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		env.fake.AddFile(drivetest.File{
			ID:           name,
			Name:         name,
			MimeType:     drive.MimeTypePlainText,
			ModifiedTime: fmt.Sprintf("2024-05-%02dT10:00:00Z", i+1),
		})
	}

	text, isErr := env.call(t, "drive_list_recent_files", nil)
	require.False(t, isErr, text)

	var files []drive.FileDescriptor
	require.NoError(t, json.Unmarshal([]byte(text), &files))
	require.Len(t, files, 10)
	assert.Equal(t, drive.FileDescriptor{
		ID:           "a.txt",
		Name:         "a.txt",
		MimeType:     drive.MimeTypePlainText,
		ModifiedTime: "2024-05-01T10:00:00Z",
	}, files[0])

	text, _ = env.call(t, "drive_list_recent_files", map[string]any{"limit": float64(0)})
	assert.JSONEq(t, `[]`, text)
}

func TestReadFileContent_PlainText(t *testing.T) {
	env := newTestEnv(t, 0)
	env.fake.AddFile(drivetest.File{ID: "f1", Name: "notes.txt", MimeType: drive.MimeTypePlainText, Content: []byte("abc")})

	got := env.readContent(t, "f1")
	assert.Equal(t, drive.FileContent{ID: "f1", Name: "notes.txt", MimeType: drive.MimeTypePlainText, Content: "abc"}, got)
}

func TestReadFileContent_GoogleDoc(t *testing.T) {
	env := newTestEnv(t, 0)
	env.fake.AddFile(drivetest.File{ID: "d1", Name: "Plan", MimeType: drive.MimeTypeGoogleDoc, Export: []byte("\ufeffQuarterly plan")})

	got := env.readContent(t, "d1")
	assert.Equal(t, "Quarterly plan", got.Content)
	assert.Equal(t, 1, env.fake.Calls("export"))
	assert.Zero(t, env.fake.Calls("download"))
}

func TestReadFileContent_PDF(t *testing.T) {
	data, err := os.ReadFile("../../docs/testdata/sample.pdf")
	require.NoError(t, err)

	env := newTestEnv(t, 0)
	env.fake.AddFile(drivetest.File{ID: "p1", Name: "sample.pdf", MimeType: drive.MimeTypePDF, Content: data})

	got := env.readContent(t, "p1")
	assert.Contains(t, got.Content, "First page")
	assert.Contains(t, got.Content, "Third page")
}

func TestReadFileContent_Unsupported(t *testing.T) {
	env := newTestEnv(t, 0)
	env.fake.AddFile(drivetest.File{ID: "z1", Name: "a.zip", MimeType: "application/zip", Content: []byte("PK")})

	got := env.readContent(t, "z1")
	assert.Equal(t, "Unsupported MIME type: application/zip", got.Content)
	assert.Zero(t, env.fake.Calls("download"))
}

func TestReadFileContent_Errors(t *testing.T) {
	env := newTestEnv(t, 4)
	env.fake.AddFile(drivetest.File{ID: "big", Name: "big.txt", MimeType: drive.MimeTypePlainText, Content: []byte("too large")})
	env.fake.AddFile(drivetest.File{ID: "bad", Name: "bad.pdf", MimeType: drive.MimeTypePDF, Content: []byte("%P")})
	env.fake.AddFile(drivetest.File{ID: "bin", Name: "bin.txt", MimeType: drive.MimeTypePlainText, Content: []byte{0xff, 0xfe}})

	tests := []struct {
		name     string
		args     map[string]any
		wantKind string
	}{
		{name: "missing fileId", args: nil, wantKind: "invalid_argument"},
		{name: "unknown file", args: map[string]any{"fileId": "nope"}, wantKind: "remote"},
		{name: "content over limit", args: map[string]any{"fileId": "big"}, wantKind: "limit"},
		{name: "malformed pdf", args: map[string]any{"fileId": "bad"}, wantKind: "decode"},
		{name: "invalid utf-8", args: map[string]any{"fileId": "bin"}, wantKind: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := env.call(t, "drive_read_file_content", tt.args)
			require.True(t, isErr, text)

			var record map[string]string
			require.NoError(t, json.Unmarshal([]byte(text), &record))
			assert.Equal(t, tt.wantKind, record["kind"])
			assert.NotEmpty(t, record["error"])
		})
	}
}
