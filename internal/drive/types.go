package drive

import (
	drive "google.golang.org/api/drive/v3"
)

// MIME types handled by ReadContent.
const (
	MimeTypeGoogleDoc = "application/vnd.google-apps.document"
	MimeTypePlainText = "text/plain"
	MimeTypePDF       = "application/pdf"
)

// FileDescriptor is the flat record returned by ListFiles.
type FileDescriptor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime"`
}

// FileContent is the flat record returned by ReadContent.
type FileContent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
}

// TextExtractor converts a binary document to plain text.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

func convertToDescriptor(f *drive.File) FileDescriptor {
	return FileDescriptor{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
	}
}
