package cfbak

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or invalid caller-supplied argument.
// It is raised before any remote call is attempted and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent zone, repository, file or snapshot.
// Existence probes use it as a control-flow signal and convert it to an
// empty result where absence is a normal outcome; elsewhere it surfaces
// as-is.
type NotFoundError struct {
	Resource string // "zone", "repository", "file", "snapshot", ...
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// RemoteError wraps any other transport or API failure, identifying which
// service and operation was in flight.
type RemoteError struct {
	Service string // "cloudflare", "github", "s3"
	Op      string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
