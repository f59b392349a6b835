package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/peer-review-dashboard/pkg/backend"
)

var (
	// ErrBackendUnavailable indicates the backend could not be reached.
	ErrBackendUnavailable = backend.ErrUnavailable
	// ErrValidation indicates the request was rejected before reaching the backend.
	ErrValidation = errors.New("validation failed")
)

// RequestError is a non-success answer from the backend.
type RequestError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// ValidationError describes the first invalid field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
