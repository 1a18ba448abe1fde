package common

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/servar-dev/servar/internal/docs"
	"github.com/servar-dev/servar/internal/drive"
	"github.com/servar-dev/servar/internal/gmail"
	"github.com/servar-dev/servar/internal/google"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "argument error",
			err:  &ArgumentError{Name: "id", Reason: "is required"},
			want: KindInvalidArgument,
		},
		{
			name: "auth error",
			err:  &google.AuthError{Provider: google.ProviderMail, Err: google.ErrNoToken},
			want: KindAuth,
		},
		{
			name: "refresh failure inside url error",
			err: &url.Error{Op: "Get", URL: "https://gmail.googleapis.com", Err: &oauth2.RetrieveError{
				ErrorCode: "invalid_grant",
			}},
			want: KindAuth,
		},
		{
			name: "unauthorized api error",
			err:  fmt.Errorf("failed to list messages: %w", &googleapi.Error{Code: 401, Message: "Invalid Credentials"}),
			want: KindAuth,
		},
		{
			name: "not found api error",
			err:  fmt.Errorf("failed to get file: %w", &googleapi.Error{Code: 404, Message: "File not found"}),
			want: KindRemote,
		},
		{
			name: "content too large",
			err:  fmt.Errorf("file f1: %w", drive.ErrContentTooLarge),
			want: KindLimit,
		},
		{
			name: "body decode",
			err:  fmt.Errorf("%w: bad base64", gmail.ErrBodyDecode),
			want: KindDecode,
		},
		{
			name: "pdf extraction",
			err:  fmt.Errorf("file f1: %w", docs.ErrExtract),
			want: KindDecode,
		},
		{
			name: "invalid utf-8",
			err:  drive.ErrInvalidText,
			want: KindDecode,
		},
		{
			name: "anything else",
			err:  errors.New("connection reset"),
			want: KindRemote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestErrorResult(t *testing.T) {
	result := ErrorResult(errors.New(`bad "quote"`), KindRemote)

	assert.True(t, result.IsError)
	assert.JSONEq(t, `{"error": "bad \"quote\"", "kind": "remote"}`, resultText(t, result))
}
