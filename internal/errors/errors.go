package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of workflow failure.
type ErrorCode string

const (
	ErrInvalidInput            ErrorCode = "INVALID_INPUT"             // 400
	ErrCredential              ErrorCode = "CREDENTIAL"                // 401
	ErrNotFound                ErrorCode = "NOT_FOUND"                 // 404
	ErrInvariant               ErrorCode = "INVARIANT"                 // 409
	ErrUnsupportedLanguagePair ErrorCode = "UNSUPPORTED_LANGUAGE_PAIR" // 422
	ErrEmptyResult             ErrorCode = "EMPTY_RESULT"              // 422
	ErrRetrieval               ErrorCode = "RETRIEVAL"                 // 502
	ErrChunkProcessing         ErrorCode = "CHUNK_PROCESSING"          // 502
	ErrInternal                ErrorCode = "INTERNAL"                  // 500
)

// AppError is a structured error carrying a code, an HTTP status, a
// human-readable message and optional details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewRetrieval creates a 502 error for transcript source failures.
func NewRetrieval(msg string, err error) *AppError {
	return &AppError{
		Code:    ErrRetrieval,
		Status:  http.StatusBadGateway,
		Message: msg,
		Err:     err,
	}
}

// NewUnsupportedLanguagePair creates a 422 error for a translation pair outside the support matrix.
func NewUnsupportedLanguagePair(source, target string) *AppError {
	return &AppError{
		Code:    ErrUnsupportedLanguagePair,
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("translation from %q to %q is not supported", source, target),
		Details: map[string]any{"source": source, "target": target},
	}
}

// NewChunkProcessing creates an error for a single failed chunk. index is zero based.
func NewChunkProcessing(index int, err error) *AppError {
	return &AppError{
		Code:    ErrChunkProcessing,
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("skipping chunk %d due to error", index+1),
		Details: map[string]any{"chunk": index + 1},
		Err:     err,
	}
}

// NewEmptyResult creates a 422 error when no chunk of a task produced output.
func NewEmptyResult(task string, chunks int) *AppError {
	return &AppError{
		Code:    ErrEmptyResult,
		Status:  http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("%s failed for all text chunks", task),
		Details: map[string]any{"task": task, "chunks": chunks},
	}
}

// NewCredential creates a 401 error for a rejected or missing API key.
func NewCredential(msg string, err error) *AppError {
	return &AppError{
		Code:    ErrCredential,
		Status:  http.StatusUnauthorized,
		Message: msg,
		Err:     err,
	}
}

// NewInvalidInput creates a 400 error for malformed user input.
func NewInvalidInput(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}

// NewNotFound creates a 404 error.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInvariant creates a 409 error for an action whose precondition does not hold.
func NewInvariant(msg string) *AppError {
	return &AppError{
		Code:    ErrInvariant,
		Status:  http.StatusConflict,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
		Err:     err,
	}
}

// Wrap gives an untyped error a user-facing message as a 500. Errors that
// already carry an AppError are returned unchanged.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s: %v", msg, err),
		Err:     err,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error chain contains an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		appErr, ok := As(err)
		if !ok {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
