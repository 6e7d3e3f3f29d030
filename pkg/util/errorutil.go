package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers.
const (
	CodeValidation        = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeCorruptData       = "CORRUPT_DATA"
	CodeStorage           = "STORAGE_ERROR"
	CodeExport            = "EXPORT_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// Sentinels usable with errors.Is against any DomainError carrying the same code.
var (
	ErrValidation        = &DomainError{Code: CodeValidation}
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrCorruptData       = &DomainError{Code: CodeCorruptData}
	ErrStorage           = &DomainError{Code: CodeStorage}
	ErrExport            = &DomainError{Code: CodeExport}
	ErrInvalidTransition = &DomainError{Code: CodeInvalidTransition}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so callers can compare against the sentinels.
func (e *DomainError) Is(target error) bool {
	other, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewCorruptData(source string, err error) error {
	return &DomainError{
		Code:       CodeCorruptData,
		Message:    fmt.Sprintf("data in %s is corrupted; starting with empty data", source),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"source": source},
		Err:        err,
	}
}

func NewStorageError(op string, err error) error {
	return &DomainError{
		Code:       CodeStorage,
		Message:    fmt.Sprintf("failed to %s data", op),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewExportError(path string, err error) error {
	return &DomainError{
		Code:       CodeExport,
		Message:    "failed to export",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"path": path},
		Err:        err,
	}
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot move ticket from %s to %s", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
