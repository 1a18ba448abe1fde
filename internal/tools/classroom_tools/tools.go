package classroom_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/servar-dev/servar/internal/server"
	"github.com/servar-dev/servar/internal/tools/common"
)

// RegisterClassroomTools registers all Classroom-related tools with the MCP server
func RegisterClassroomTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCoursesTool := mcp.NewTool("classroom_list_courses",
		mcp.WithDescription("List the names of all Google Classroom courses visible to the user"),
	)
	s.AddTool(listCoursesTool, common.InstrumentedToolHandler("classroom_list_courses", "classroom", "list", sc,
		func(ctx context.Context, _ map[string]any) (any, error) {
			return handleListCourses(ctx, sc)
		}))

	return nil
}

func handleListCourses(ctx context.Context, sc *server.ServerContext) (any, error) {
	client, err := sc.CourseClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListCourseNames(ctx)
}
