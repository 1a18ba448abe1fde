package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestWithHelpers(t *testing.T) {
	logger := slog.Default()
	if WithOperation(logger, "gmail.list") == nil {
		t.Error("WithOperation returned nil")
	}
	if WithProvider(logger, "mail") == nil {
		t.Error("WithProvider returned nil")
	}
	if WithTool(logger, "gmail_list_unread") == nil {
		t.Error("WithTool returned nil")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("list"), KeyOperation, "list"},
		{"service", Service("drive"), KeyService, "drive"},
		{"provider", Provider("courses"), KeyProvider, "courses"},
		{"tool", Tool("drive_read_file_content"), KeyTool, "drive_read_file_content"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"kind", Kind("auth"), KeyKind, "auth"},
		{"path", Path("/home/jane/.config/servar/mail_token.json"), KeyPath, "mail_token.json"},
		{"empty path", Path(""), KeyPath, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "boom" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "boom")
	}

	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty group", attr.Key)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"ya29.abc", "[token:8 chars]"},
		{"1//refresh-token-value", "[token:22 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}
