package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/servar-dev/servar/internal/server"
	"github.com/servar-dev/servar/internal/tools/common"
)

const serviceName = "gmail"

// Default list sizes.
const (
	defaultUnreadLimit = 5
	defaultReadLimit   = 50
	defaultSpamLimit   = 20
)

// RegisterGmailTools registers all Gmail-related tools with the MCP server
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listUnreadTool := mcp.NewTool("gmail_list_unread",
		mcp.WithDescription("List unread messages in the inbox and mark them read"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 5)"),
		),
		mcp.WithBoolean("markRead",
			mcp.Description("Remove the UNREAD label from returned messages (default: true)"),
		),
	)
	s.AddTool(listUnreadTool, common.InstrumentedToolHandler("gmail_list_unread", serviceName, "list", sc,
		func(ctx context.Context, args map[string]any) (any, error) {
			return handleListUnread(ctx, args, sc)
		}))

	readMessageTool := mcp.NewTool("gmail_read_message",
		mcp.WithDescription("Read the subject, sender and plain-text body of a message"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The ID of the message to read"),
		),
	)
	s.AddTool(readMessageTool, common.InstrumentedToolHandler("gmail_read_message", serviceName, "get", sc,
		func(ctx context.Context, args map[string]any) (any, error) {
			return handleReadMessage(ctx, args, sc)
		}))

	listReadTool := mcp.NewTool("gmail_list_read",
		mcp.WithDescription("List inbox messages that have already been read. May return fewer than limit messages"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of inbox messages to inspect (default: 50)"),
		),
	)
	s.AddTool(listReadTool, common.InstrumentedToolHandler("gmail_list_read", serviceName, "list", sc,
		func(ctx context.Context, args map[string]any) (any, error) {
			return handleListRead(ctx, args, sc)
		}))

	listSpamTool := mcp.NewTool("gmail_list_spam",
		mcp.WithDescription("List messages in the spam folder without modifying them"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 20)"),
		),
	)
	s.AddTool(listSpamTool, common.InstrumentedToolHandler("gmail_list_spam", serviceName, "list", sc,
		func(ctx context.Context, args map[string]any) (any, error) {
			return handleListSpam(ctx, args, sc)
		}))

	markReadTool := mcp.NewTool("gmail_mark_read",
		mcp.WithDescription("Remove the UNREAD label from a message"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The ID of the message to mark read"),
		),
	)
	s.AddTool(markReadTool, common.InstrumentedToolHandler("gmail_mark_read", serviceName, "modify", sc,
		func(ctx context.Context, args map[string]any) (any, error) {
			return handleMarkRead(ctx, args, sc)
		}))

	return nil
}

func handleListUnread(ctx context.Context, args map[string]any, sc *server.ServerContext) (any, error) {
	limit, err := common.IntArg(args, "limit", defaultUnreadLimit)
	if err != nil {
		return nil, err
	}
	markRead, err := common.BoolArg(args, "markRead", true)
	if err != nil {
		return nil, err
	}

	client, err := sc.MailClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListUnread(ctx, limit, markRead)
}

func handleReadMessage(ctx context.Context, args map[string]any, sc *server.ServerContext) (any, error) {
	id, err := common.StringArg(args, "id")
	if err != nil {
		return nil, err
	}

	client, err := sc.MailClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.ReadMessage(ctx, id)
}

func handleListRead(ctx context.Context, args map[string]any, sc *server.ServerContext) (any, error) {
	limit, err := common.IntArg(args, "limit", defaultReadLimit)
	if err != nil {
		return nil, err
	}

	client, err := sc.MailClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListRead(ctx, limit)
}

func handleListSpam(ctx context.Context, args map[string]any, sc *server.ServerContext) (any, error) {
	limit, err := common.IntArg(args, "limit", defaultSpamLimit)
	if err != nil {
		return nil, err
	}

	client, err := sc.MailClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListSpam(ctx, limit)
}

type markReadResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func handleMarkRead(ctx context.Context, args map[string]any, sc *server.ServerContext) (any, error) {
	id, err := common.StringArg(args, "id")
	if err != nil {
		return nil, err
	}

	client, err := sc.MailClient(ctx)
	if err != nil {
		return nil, err
	}
	if err := client.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	return markReadResult{ID: id, Status: "read"}, nil
}
