package common

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/servar-dev/servar/internal/docs"
	"github.com/servar-dev/servar/internal/drive"
	"github.com/servar-dev/servar/internal/gmail"
	"github.com/servar-dev/servar/internal/google"
)

// ErrorKind classifies a tool failure.
type ErrorKind string

// Error kinds reported in the "kind" field of an error result.
const (
	KindAuth            ErrorKind = "auth"
	KindRemote          ErrorKind = "remote"
	KindDecode          ErrorKind = "decode"
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindLimit           ErrorKind = "limit"
)

// ArgumentError reports a missing or ill-typed tool argument.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Reason)
}

// Classify maps err to the kind reported to the caller. Errors that match
// nothing more specific are remote failures.
func Classify(err error) ErrorKind {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return KindInvalidArgument
	}

	var authErr *google.AuthError
	if errors.As(err, &authErr) {
		return KindAuth
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return KindAuth
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return KindAuth
	}

	switch {
	case errors.Is(err, drive.ErrContentTooLarge):
		return KindLimit
	case errors.Is(err, gmail.ErrBodyDecode),
		errors.Is(err, docs.ErrExtract),
		errors.Is(err, drive.ErrInvalidText):
		return KindDecode
	}

	return KindRemote
}
