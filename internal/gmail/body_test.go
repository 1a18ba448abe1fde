package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name    string
		payload *gmail.MessagePart
		want    string
	}{
		{
			name:    "no parts",
			payload: &gmail.MessagePart{Body: &gmail.MessagePartBody{Data: b64("hello")}},
			want:    "hello",
		},
		{
			name: "unpadded base64url",
			payload: &gmail.MessagePart{
				Body: &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("hello"))},
			},
			want: "hello",
		},
		{
			name: "concatenates text/plain parts only",
			payload: &gmail.MessagePart{Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("first ")}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>skip</p>")}},
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("second")}},
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{}},
			}},
			want: "first second",
		},
		{
			name: "nested multipart is not descended",
			payload: &gmail.MessagePart{Parts: []*gmail.MessagePart{
				{MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("deep")}},
				}},
			}},
			want: "",
		},
		{name: "empty body", payload: &gmail.MessagePart{}, want: ""},
		{name: "nil payload", payload: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBody(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractBody_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"invalid utf-8", base64.URLEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractBody(&gmail.MessagePart{Body: &gmail.MessagePartBody{Data: tt.data}})
			assert.ErrorIs(t, err, ErrBodyDecode)
		})
	}
}

func TestHeaderValue(t *testing.T) {
	headers := []*gmail.MessagePartHeader{
		{Name: "subject", Value: "lower"},
		{Name: "From", Value: "alice"},
	}

	assert.Equal(t, "lower", headerValue(headers, "Subject", defaultSubject))
	assert.Equal(t, "alice", headerValue(headers, "From", defaultFrom))
	assert.Equal(t, "(No Subject)", headerValue(nil, "Subject", defaultSubject))
}
