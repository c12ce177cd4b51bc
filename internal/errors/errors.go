package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMissingFile     ErrorType = "MISSING_FILE"
	ErrTypeMalformedHeader ErrorType = "MALFORMED_HEADER"
	ErrTypeRowArity        ErrorType = "ROW_ARITY"
	ErrTypeFragmentGap     ErrorType = "FRAGMENT_GAP"
	ErrTypeParsing         ErrorType = "PARSING"
	ErrTypeConfig          ErrorType = "CONFIG"
	ErrTypeStorage         ErrorType = "STORAGE"
	ErrTypeValidation      ErrorType = "VALIDATION"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper constructors for the digest error kinds

// NewMissingFileError reports that a base test file is absent
func NewMissingFileError(path string, cause error) *AppError {
	return NewAppError(ErrTypeMissingFile, fmt.Sprintf("base test file %s not found", path), cause).
		WithContext("path", path)
}

// NewMalformedHeaderError reports a header that does not match the rig's column set
func NewMalformedHeaderError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedHeader, message, cause)
}

// NewRowArityError reports a data row with the wrong field count
func NewRowArityError(row, got, want int) *AppError {
	return NewAppError(ErrTypeRowArity,
		fmt.Sprintf("row %d has %d fields, expected %d", row, got, want), nil).
		WithContext("row", row).
		WithContext("got", got).
		WithContext("want", want)
}

// NewFragmentGapError reports non-contiguous high-speed fragment numbering
func NewFragmentGapError(base string, expected, found int) *AppError {
	return NewAppError(ErrTypeFragmentGap,
		fmt.Sprintf("test %s: expected fragment h%03d, found h%03d", base, expected, found), nil).
		WithContext("base", base).
		WithContext("expected", expected).
		WithContext("found", found)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// IsType reports whether err (or anything it wraps) is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsMissingFile reports whether err is a missing-file error
func IsMissingFile(err error) bool { return IsType(err, ErrTypeMissingFile) }

// IsMalformedHeader reports whether err is a malformed-header error
func IsMalformedHeader(err error) bool { return IsType(err, ErrTypeMalformedHeader) }

// IsRowArity reports whether err is a row-arity error
func IsRowArity(err error) bool { return IsType(err, ErrTypeRowArity) }

// IsFragmentGap reports whether err is a fragment-gap error
func IsFragmentGap(err error) bool { return IsType(err, ErrTypeFragmentGap) }
