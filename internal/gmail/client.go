package gmail

import (
	"context"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/servar-dev/servar/internal/instrumentation"
)

// System label IDs.
const (
	LabelInbox  = "INBOX"
	LabelUnread = "UNREAD"
	LabelSpam   = "SPAM"
)

const (
	userID = "me"

	// maxPageSize is the largest maxResults the messages.list endpoint accepts.
	maxPageSize = 500
)

// Client wraps the Gmail Users service.
type Client struct {
	users   *gmail.UsersService
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client. opts normally carry the authorized HTTP
// client; m may be nil.
func NewClient(ctx context.Context, m *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{users: svc.Users, metrics: m}, nil
}

func (c *Client) track(ctx context.Context, operation string, fn func(context.Context) error) error {
	return instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceGmail, operation, fn)
}

// ListMessageIDs returns up to limit IDs of messages carrying every label in
// labels, newest first. limit <= 0 returns an empty slice without calling the API.
func (c *Client) ListMessageIDs(ctx context.Context, labels []string, limit int) ([]string, error) {
	ids := []string{}
	if limit <= 0 {
		return ids, nil
	}

	pageToken := ""
	for {
		remaining := limit - len(ids)
		if remaining <= 0 {
			break
		}
		pageSize := min(remaining, maxPageSize)

		call := c.users.Messages.List(userID).LabelIds(labels...).MaxResults(int64(pageSize))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var res *gmail.ListMessagesResponse
		err := c.track(ctx, instrumentation.OperationList, func(ctx context.Context) error {
			var err error
			res, err = call.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// GetMessage fetches one message. format is "full" or "metadata"; metadata
// requests only the Subject and From headers.
func (c *Client) GetMessage(ctx context.Context, id, format string) (*gmail.Message, error) {
	call := c.users.Messages.Get(userID, id).Format(format)
	if format == "metadata" {
		call = call.MetadataHeaders("Subject", "From")
	}

	var msg *gmail.Message
	err := c.track(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		msg, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// MarkRead removes the UNREAD label from a message.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	call := c.users.Messages.Modify(userID, id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{LabelUnread},
	})
	err := c.track(ctx, instrumentation.OperationModify, func(ctx context.Context) error {
		_, err := call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mark message %s as read: %w", id, err)
	}
	return nil
}

// ListUnread summarizes up to limit unread inbox messages. With markRead,
// each message is marked read after it has been summarized.
func (c *Client) ListUnread(ctx context.Context, limit int, markRead bool) ([]MessageSummary, error) {
	ids, err := c.ListMessageIDs(ctx, []string{LabelInbox, LabelUnread}, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		msg, err := c.GetMessage(ctx, id, "metadata")
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summarize(msg))

		if markRead {
			if err := c.MarkRead(ctx, id); err != nil {
				return nil, err
			}
		}
	}
	return summaries, nil
}

// ListRead summarizes inbox messages that are no longer unread. Up to limit
// inbox messages are inspected, so the result may be shorter than limit.
func (c *Client) ListRead(ctx context.Context, limit int) ([]MessageSummary, error) {
	ids, err := c.ListMessageIDs(ctx, []string{LabelInbox}, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		msg, err := c.GetMessage(ctx, id, "metadata")
		if err != nil {
			return nil, err
		}
		if hasLabel(msg, LabelUnread) {
			continue
		}
		summaries = append(summaries, summarize(msg))
	}
	return summaries, nil
}

// ListSpam summarizes up to limit messages in the spam folder.
func (c *Client) ListSpam(ctx context.Context, limit int) ([]MessageSummary, error) {
	ids, err := c.ListMessageIDs(ctx, []string{LabelSpam}, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]MessageSummary, 0, len(ids))
	for _, id := range ids {
		msg, err := c.GetMessage(ctx, id, "metadata")
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summarize(msg))
	}
	return summaries, nil
}

// ReadMessage fetches the full message and flattens it to a MessageDetail.
func (c *Client) ReadMessage(ctx context.Context, id string) (*MessageDetail, error) {
	msg, err := c.GetMessage(ctx, id, "full")
	if err != nil {
		return nil, err
	}

	summary := summarize(msg)
	body, err := ExtractBody(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", id, err)
	}

	return &MessageDetail{
		Subject: summary.Subject,
		From:    summary.From,
		Body:    body,
	}, nil
}
