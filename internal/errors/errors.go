package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a draftpad error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrEmptyContent     ErrorCode = "EMPTY_CONTENT"     // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED" // 409
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrStorage          ErrorCode = "STORAGE_FAILURE"   // 500
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrQuotaExceeded    ErrorCode = "QUOTA_EXCEEDED"    // 507
)

// DraftError represents a structured error with code, status, and details.
type DraftError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the underlying backend error, if any. Never shown to users.
	cause error
}

// Error implements the error interface.
func (e *DraftError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the backend error that produced e, if any.
func (e *DraftError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *DraftError {
	return &DraftError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewEmptyContent creates a 400 error for a save with no content.
func NewEmptyContent() *DraftError {
	return &DraftError{
		Code:    ErrEmptyContent,
		Status:  400,
		Message: "draft content is empty",
	}
}

// NewNotFound creates a 404 error for when a draft cannot be found.
func NewNotFound(id int64) *DraftError {
	return &DraftError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("draft not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *DraftError {
	return &DraftError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCapacityExceeded creates a 409 error when the draft ceiling is reached.
func NewCapacityExceeded(max int) *DraftError {
	return &DraftError{
		Code:    ErrCapacityExceeded,
		Status:  409,
		Message: fmt.Sprintf("cannot save: the limit of %d drafts has been reached; delete drafts you no longer need", max),
		Details: map[string]any{"max_drafts": max},
	}
}

// NewCancelled creates a 499 error for an operation aborted by its context.
func NewCancelled(op string) *DraftError {
	return &DraftError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewQuotaExceeded creates a 507 error when the device has no room left for the store.
func NewQuotaExceeded(cause error) *DraftError {
	return &DraftError{
		Code:    ErrQuotaExceeded,
		Status:  507,
		Message: "cannot save: device storage is full; delete unneeded drafts or free up storage on this device",
		cause:   cause,
	}
}

// NewStorage creates a 500 error for a generic backend failure.
func NewStorage(cause error) *DraftError {
	return &DraftError{
		Code:    ErrStorage,
		Status:  500,
		Message: "failed to save; please try again",
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *DraftError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &DraftError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a DraftError with the given code.
func Is(err error, code ErrorCode) bool {
	var dErr *DraftError
	if stderrors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsStorageFailure reports whether err is a quota or backend storage failure.
func IsStorageFailure(err error) bool {
	return Is(err, ErrQuotaExceeded) || Is(err, ErrStorage)
}
