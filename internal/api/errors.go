package api

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// KindTransport covers connection, timeout and cancellation failures.
	KindTransport ErrorKind = "transport"
	// KindStatus is a non-2xx response.
	KindStatus ErrorKind = "status"
	// KindMalformed is an unparseable body or one missing message.content.
	KindMalformed ErrorKind = "malformed"
)

// Error is the single error value every chat call failure is normalized to.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("API error: %d", e.StatusCode)
	default:
		if e.Err == nil {
			return fmt.Sprintf("API %s error", e.Kind)
		}
		return fmt.Sprintf("API %s error: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

var ErrMissingContent = errors.New("response missing message.content")

// Normalize folds any error into an *Error, keeping an existing one as is.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Kind: KindTransport, Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
