package tools

import (
	"errors"
	"fmt"

	"github.com/usestring/replaygraph-mcp/internal/resolve"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNoCorpus     = "NO_CORPUS"
	ErrCodeNoTarget     = "NO_TARGET"
	ErrCodeResolve      = "RESOLVE_ERROR"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// ErrNoCorpus means no capture has been loaded yet.
func ErrNoCorpus() error {
	return &CodedError{
		Code:    ErrCodeNoCorpus,
		Message: "no capture loaded; call replaygraph_load_har first",
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// WrapResolveError converts pipeline errors to coded errors.
func WrapResolveError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, resolve.ErrNoTargetFound) {
		return &CodedError{
			Code:    ErrCodeNoTarget,
			Message: "no corpus endpoint matched the goal",
			Cause:   err,
		}
	}
	return &CodedError{
		Code:    ErrCodeResolve,
		Message: err.Error(),
		Cause:   err,
	}
}
