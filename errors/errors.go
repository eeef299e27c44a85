package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeRuntime    ErrorType = "RUNTIME"
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeSystem     ErrorType = "SYSTEM"
	ErrorTypeUser       ErrorType = "USER"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
)

// ExecutionError represents a structured error with detailed information
type ExecutionError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Language  string                 `json:"language,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Col       int                    `json:"col,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Severity  ErrorSeverity          `json:"severity"`
	Type      ErrorType              `json:"type"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface.
// Format: [TYPE][CODE] message[ line N[ col M]]
func (e *ExecutionError) Error() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Type, e.Code, e.Message))

	if e.Line > 0 {
		builder.WriteString(fmt.Sprintf(" line %d", e.Line))
		if e.Col > 0 {
			builder.WriteString(fmt.Sprintf(" col %d", e.Col))
		}
	}

	return builder.String()
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code and type
func (e *ExecutionError) Is(target error) bool {
	if other, ok := target.(*ExecutionError); ok {
		return e.Code == other.Code && e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *ExecutionError) WithContext(key string, value interface{}) *ExecutionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithLanguage sets the language for the error
func (e *ExecutionError) WithLanguage(language string) *ExecutionError {
	e.Language = language
	return e
}

// WithPosition sets the script line and column for the error
func (e *ExecutionError) WithPosition(line, col int) *ExecutionError {
	e.Line = line
	e.Col = col
	return e
}

// Wrap records err as the cause
func (e *ExecutionError) Wrap(err error) *ExecutionError {
	e.Cause = err
	return e
}

func newError(errorType ErrorType, severity ErrorSeverity, code, message string) *ExecutionError {
	return &ExecutionError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Severity:  severity,
		Type:      errorType,
		Context:   make(map[string]interface{}),
	}
}

// NewRuntimeError creates a new runtime error raised while executing a script
func NewRuntimeError(language, code, message string) *ExecutionError {
	return newError(ErrorTypeRuntime, SeverityError, code, message).WithLanguage(language)
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string) *ExecutionError {
	return newError(ErrorTypeValidation, SeverityWarning, code, message)
}

// NewSystemError creates a new system error
func NewSystemError(code, message string) *ExecutionError {
	return newError(ErrorTypeSystem, SeverityError, code, message)
}

// NewUserError creates a new user error
func NewUserError(code, message string) *ExecutionError {
	return newError(ErrorTypeUser, SeverityInfo, code, message)
}

// WrapError wraps an existing error into a system ExecutionError
func WrapError(err error, code, message string) *ExecutionError {
	return NewSystemError(code, message).Wrap(err)
}

// AsExecutionError returns the first ExecutionError in the chain
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if stderrors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}

// Code returns the code of the first ExecutionError in the chain, or "" if there is none
func Code(err error) string {
	if execErr, ok := AsExecutionError(err); ok {
		return execErr.Code
	}
	return ""
}
