package google

import (
	"fmt"
	"strings"

	classroom "google.golang.org/api/classroom/v1"
	drive "google.golang.org/api/drive/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// Provider identifies one of the remote APIs that holds its own credential.
type Provider string

const (
	ProviderMail    Provider = "mail"
	ProviderStorage Provider = "storage"
	ProviderCourses Provider = "courses"
)

// Providers lists every provider in a stable order.
func Providers() []Provider {
	return []Provider{ProviderMail, ProviderStorage, ProviderCourses}
}

// ParseProvider converts a name to a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	switch p {
	case ProviderMail, ProviderStorage, ProviderCourses:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider %q (want mail, storage or courses)", name)
}

// Scopes returns the fixed OAuth scope set requested for the provider.
//
//   - mail: read and modify labels (mark messages read)
//   - storage: read-only Drive access
//   - courses: read-only Classroom course list
func (p Provider) Scopes() []string {
	switch p {
	case ProviderMail:
		return []string{gmail.GmailModifyScope}
	case ProviderStorage:
		return []string{drive.DriveReadonlyScope}
	case ProviderCourses:
		return []string{classroom.ClassroomCoursesReadonlyScope}
	}
	return nil
}

// Service returns the Google service name used in metrics and spans.
func (p Provider) Service() string {
	switch p {
	case ProviderMail:
		return "gmail"
	case ProviderStorage:
		return "drive"
	case ProviderCourses:
		return "classroom"
	}
	return string(p)
}

func (p Provider) String() string {
	return string(p)
}
