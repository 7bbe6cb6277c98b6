package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared between repositories and handlers. Handlers map these
// to HTTP status codes in one place (handlers/api_errors.go).
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDuplicate         = errors.New("duplicate")
	ErrPageCountMismatch = errors.New("page metadata length does not match page count")
)

// ExternalServiceError classifies failures of external collaborators (Vision
// OCR, S3 object storage). These are surfaced to the caller and never retried.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// External wraps err as an ExternalServiceError for the named service.
func External(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}

// IsExternal reports whether err (or anything it wraps) is an external-service
// failure.
func IsExternal(err error) bool {
	var ext *ExternalServiceError
	return errors.As(err, &ext)
}
