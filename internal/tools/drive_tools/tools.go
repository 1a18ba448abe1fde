package drive_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/servar-dev/servar/internal/server"
	"github.com/servar-dev/servar/internal/tools/common"
)

const (
	serviceName      = "drive"
	defaultListLimit = 10
)

// RegisterDriveTools registers all Drive-related tools with the MCP server
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listFilesTool := mcp.NewTool("drive_list_recent_files",
		mcp.WithDescription("List files in Google Drive with their ID, name, MIME type and modification time"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of files to return (default: 10)"),
		),
	)
	s.AddTool(listFilesTool, common.InstrumentedToolHandler("drive_list_recent_files", serviceName, "list", sc,
		func(ctx context.Context, args map[string]any) (any, error) {
			return handleListRecentFiles(ctx, args, sc)
		}))

	readContentTool := mcp.NewTool("drive_read_file_content",
		mcp.WithDescription("Read the text content of a Drive file. Google Docs are exported as plain text, "+
			"PDF text is extracted page by page and plain text files are returned as is"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file to read"),
		),
	)
	s.AddTool(readContentTool, common.InstrumentedToolHandler("drive_read_file_content", serviceName, "get", sc,
		func(ctx context.Context, args map[string]any) (any, error) {
			return handleReadFileContent(ctx, args, sc)
		}))

	return nil
}

func handleListRecentFiles(ctx context.Context, args map[string]any, sc *server.ServerContext) (any, error) {
	limit, err := common.IntArg(args, "limit", defaultListLimit)
	if err != nil {
		return nil, err
	}

	client, err := sc.StorageClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListFiles(ctx, limit)
}

func handleReadFileContent(ctx context.Context, args map[string]any, sc *server.ServerContext) (any, error) {
	fileID, err := common.StringArg(args, "fileId")
	if err != nil {
		return nil, err
	}

	client, err := sc.StorageClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.ReadContent(ctx, fileID)
}
