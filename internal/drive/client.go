package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/servar-dev/servar/internal/docs"
	"github.com/servar-dev/servar/internal/instrumentation"
)

// DefaultMaxContentBytes is used when ClientConfig.MaxContentBytes is not positive.
const DefaultMaxContentBytes int64 = 32 << 20

const (
	// maxListPageSize is the largest pageSize files.list accepts.
	maxListPageSize = 1000

	listFields = "nextPageToken, files(id, name, mimeType, modifiedTime)"
	getFields  = "id, name, mimeType"
)

var (
	// ErrContentTooLarge is returned when a file body exceeds the content limit.
	ErrContentTooLarge = errors.New("file content exceeds size limit")

	// ErrInvalidText is returned when a text file is not valid UTF-8.
	ErrInvalidText = errors.New("file content is not valid UTF-8")
)

// ClientConfig configures a Client.
type ClientConfig struct {
	MaxContentBytes int64
	Extractor       TextExtractor
	Metrics         *instrumentation.Metrics
}

// Client wraps the Google Drive API service.
type Client struct {
	service         *drive.Service
	maxContentBytes int64
	extractor       TextExtractor
	metrics         *instrumentation.Metrics
}

// NewClient creates a Drive client. A nil Extractor uses docs.PDFExtractor.
func NewClient(ctx context.Context, cfg ClientConfig, opts ...option.ClientOption) (*Client, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	if cfg.MaxContentBytes <= 0 {
		cfg.MaxContentBytes = DefaultMaxContentBytes
	}
	if cfg.Extractor == nil {
		cfg.Extractor = docs.NewPDFExtractor()
	}

	return &Client{
		service:         service,
		maxContentBytes: cfg.MaxContentBytes,
		extractor:       cfg.Extractor,
		metrics:         cfg.Metrics,
	}, nil
}

func (c *Client) track(ctx context.Context, operation string, fn func(context.Context) error) error {
	return instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceDrive, operation, fn)
}

// ListFiles returns up to limit file descriptors in the order Drive returns
// them. limit <= 0 returns an empty slice without calling the API.
func (c *Client) ListFiles(ctx context.Context, limit int) ([]FileDescriptor, error) {
	files := []FileDescriptor{}
	if limit <= 0 {
		return files, nil
	}

	pageToken := ""
	for {
		remaining := limit - len(files)
		if remaining <= 0 {
			break
		}

		call := c.service.Files.List().
			PageSize(int64(min(remaining, maxListPageSize))).
			Fields(listFields)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var res *drive.FileList
		err := c.track(ctx, instrumentation.OperationList, func(ctx context.Context) error {
			var err error
			res, err = call.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		for _, f := range res.Files {
			files = append(files, convertToDescriptor(f))
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// GetFile fetches the id, name and MIME type of a file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*drive.File, error) {
	call := c.service.Files.Get(fileID).Fields(getFields)

	var f *drive.File
	err := c.track(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		f, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return f, nil
}

// Export converts a Google Workspace file to mimeType and returns the bytes.
func (c *Client) Export(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	call := c.service.Files.Export(fileID, mimeType)

	var data []byte
	err := c.track(ctx, instrumentation.OperationExport, func(ctx context.Context) error {
		resp, err := call.Context(ctx).Download()
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err = c.readBounded(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export file %s: %w", fileID, err)
	}
	return data, nil
}

// Download returns the stored bytes of a binary or text file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	call := c.service.Files.Get(fileID)

	var data []byte
	err := c.track(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		resp, err := call.Context(ctx).Download()
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err = c.readBounded(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	return data, nil
}

// ReadContent returns the textual content of a file.
func (c *Client) ReadContent(ctx context.Context, fileID string) (*FileContent, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	result := &FileContent{
		ID:       fileID,
		Name:     f.Name,
		MimeType: f.MimeType,
	}

	var data []byte
	switch f.MimeType {
	case MimeTypeGoogleDoc:
		data, err = c.Export(ctx, fileID, MimeTypePlainText)
		if err != nil {
			return nil, err
		}
		result.Content, err = decodeText(data)

	case MimeTypePlainText:
		data, err = c.Download(ctx, fileID)
		if err != nil {
			return nil, err
		}
		result.Content, err = decodeText(data)

	case MimeTypePDF:
		data, err = c.Download(ctx, fileID)
		if err != nil {
			return nil, err
		}
		result.Content, err = c.extractor.ExtractText(data)

	default:
		result.Content = "Unsupported MIME type: " + f.MimeType
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", fileID, err)
	}

	c.metrics.RecordContentBytes(ctx, f.MimeType, len(data))
	return result, nil
}

func (c *Client) readBounded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxContentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) > c.maxContentBytes {
		return nil, fmt.Errorf("%w of %d bytes", ErrContentTooLarge, c.maxContentBytes)
	}
	return data, nil
}

// decodeText validates UTF-8 and drops the byte order mark Docs exports carry.
func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidText
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
