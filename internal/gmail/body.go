package gmail

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	gmail "google.golang.org/api/gmail/v1"
)

// ErrBodyDecode is returned when a message body is not valid base64url UTF-8.
var ErrBodyDecode = errors.New("failed to decode message body")

const (
	defaultSubject = "(No Subject)"
	defaultFrom    = "Unknown"
)

// ExtractBody returns the concatenated text/plain parts of payload, or the
// decoded top-level body when the payload has no parts.
func ExtractBody(payload *gmail.MessagePart) (string, error) {
	if payload == nil {
		return "", nil
	}

	if len(payload.Parts) > 0 {
		var sb strings.Builder
		for _, part := range payload.Parts {
			if part.MimeType != "text/plain" || part.Body == nil || part.Body.Data == "" {
				continue
			}
			text, err := decodeBody(part.Body.Data)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
		}
		return sb.String(), nil
	}

	if payload.Body == nil || payload.Body.Data == "" {
		return "", nil
	}
	return decodeBody(payload.Body.Data)
}

func decodeBody(data string) (string, error) {
	b, err := decodeBase64URL(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBodyDecode, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: body is not valid UTF-8", ErrBodyDecode)
	}
	return string(b), nil
}

// decodeBase64URL accepts both padded and unpadded base64url.
func decodeBase64URL(data string) ([]byte, error) {
	b, err := base64.URLEncoding.DecodeString(data)
	if err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}

func headerValue(headers []*gmail.MessagePartHeader, name, fallback string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return fallback
}

func summarize(msg *gmail.Message) MessageSummary {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}
	return MessageSummary{
		ID:      msg.Id,
		Subject: headerValue(headers, "Subject", defaultSubject),
		From:    headerValue(headers, "From", defaultFrom),
		Snippet: msg.Snippet,
	}
}

func hasLabel(msg *gmail.Message, label string) bool {
	for _, l := range msg.LabelIds {
		if l == label {
			return true
		}
	}
	return false
}
