package common

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Failure kinds. These strings are stable: they are returned to API clients
// and stored in the audits table.
const (
	KindMalformedDocument        = "MalformedDocument"
	KindEmptyOrImageOnlyDocument = "EmptyOrImageOnlyDocument"
	KindEmptyModelResponse       = "EmptyModelResponse"
	KindUnparseableModelOutput   = "UnparseableModelOutput"
	KindSchemaViolation          = "SchemaViolation"
	KindUpstream                 = "UpstreamError"
	KindConfig                   = "CONFIG_ERROR"
	KindInvalidInput             = "INVALID_INPUT"
)

// MaxPreviewRunes bounds the raw model text carried on an UnparseableModelOutput.
const MaxPreviewRunes = 500

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	// Detail is an optional bounded diagnostic payload, e.g. a preview of unparseable model output.
	Detail string
	Cause  error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetail is NewAppError plus a diagnostic payload truncated to MaxPreviewRunes.
func NewAppErrorWithDetail(code, message, detail string, cause error) *AppError {
	e := NewAppError(code, message, cause)
	e.Detail = Preview(detail, MaxPreviewRunes)
	return e
}

// KindOf returns the Code of the first AppError in err's chain, or "" if none.
func KindOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsKind reports whether err carries an AppError with the given code.
func IsKind(err error, kind string) bool {
	return err != nil && KindOf(err) == kind
}

// DetailOf returns the diagnostic payload of the first AppError in err's chain.
func DetailOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Detail
	}
	return ""
}

// Preview returns at most max runes of s, never splitting a UTF-8 sequence.
func Preview(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
