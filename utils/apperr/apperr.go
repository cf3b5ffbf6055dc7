// Package apperr defines the error taxonomy surfaced by the API.
// Every business failure carries a stable machine-readable code and an
// HTTP-style status so handlers can map errors without string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes
const (
	CodeNotFound         = "not_found"
	CodePermissionDenied = "permission_denied"
	CodeValidation       = "validation_error"
	CodeDuplicateEntry   = "duplicate_entry"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeBusinessLogic    = "business_logic_error"
	CodeInternal         = "internal_error"
)

// Error is a classified application error
type Error struct {
	Code    string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports an absent entity
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

// PermissionDenied reports an authenticated but disallowed action
func PermissionDenied(message string) *Error {
	return &Error{Code: CodePermissionDenied, Status: http.StatusForbidden, Message: message}
}

// Validation reports missing or malformed input
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: message}
}

// Duplicate reports a uniqueness violation
func Duplicate(message string) *Error {
	return &Error{Code: CodeDuplicateEntry, Status: http.StatusConflict, Message: message}
}

// CapacityExceeded reports a preceptor at their student cap
func CapacityExceeded(message string) *Error {
	return &Error{Code: CodeCapacityExceeded, Status: http.StatusUnprocessableEntity, Message: message}
}

// BusinessLogic reports a rule violation not otherwise classified
func BusinessLogic(message string) *Error {
	return &Error{Code: CodeBusinessLogic, Status: http.StatusUnprocessableEntity, Message: message}
}

// Internal wraps an unexpected failure
func Internal(message string, err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: message, Err: err}
}

// As extracts an *Error from err, if any
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an *Error with the given code
func HasCode(err error, code string) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsDuplicate reports whether err is a duplicate-entry error
func IsDuplicate(err error) bool { return HasCode(err, CodeDuplicateEntry) }

// IsCapacityExceeded reports whether err is a capacity error
func IsCapacityExceeded(err error) bool { return HasCode(err, CodeCapacityExceeded) }

// IsPermissionDenied reports whether err is a permission error
func IsPermissionDenied(err error) bool { return HasCode(err, CodePermissionDenied) }

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return HasCode(err, CodeValidation) }
