package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeResolver   ErrorType = "resolver"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes shared across packages.
const (
	ErrCodeSchemaRef   = "SCHEMA_REF"
	ErrCodeNoResolver  = "NO_RESOLVER"
	ErrCodeReadFile    = "READ_FILE"
	ErrCodeDecode      = "DECODE"
	ErrCodeRoundTrip   = "ROUND_TRIP"
	ErrCodeLint        = "LINT"
	ErrCodeConfigValue = "CONFIG_VALUE"
	ErrCodeFormat      = "FORMAT"
)

// RockplateError is a structured error type with context.
type RockplateError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *RockplateError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			location += fmt.Sprintf(":%d", e.Column)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *RockplateError) Unwrap() error {
	return e.Cause
}

// Is matches another *RockplateError with the same type and code.
func (e *RockplateError) Is(target error) bool {
	var t *RockplateError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *RockplateError) WithLocation(filePath string, line, column int) *RockplateError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *RockplateError {
	return &RockplateError{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *RockplateError {
	return &RockplateError{Type: ErrorTypeIO, Code: code, Message: message, Cause: cause}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *RockplateError {
	return &RockplateError{Type: ErrorTypeConfig, Code: code, Message: message}
}

// NewResolverError creates a schema resolver error.
func NewResolverError(code, message string, cause error) *RockplateError {
	return &RockplateError{Type: ErrorTypeResolver, Code: code, Message: message, Cause: cause}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *RockplateError {
	return &RockplateError{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

// Wrap wraps err in a RockplateError, keeping an existing one intact.
func Wrap(err error, errType ErrorType, code, message string) error {
	if err == nil {
		return nil
	}
	var re *RockplateError
	if errors.As(err, &re) {
		return err
	}
	return &RockplateError{Type: errType, Code: code, Message: message, Cause: err}
}

// IsType reports whether err carries a RockplateError of the given type.
func IsType(err error, errType ErrorType) bool {
	var re *RockplateError
	if errors.As(err, &re) {
		return re.Type == errType
	}
	return false
}

// As is errors.As, re-exported so callers need a single errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}
