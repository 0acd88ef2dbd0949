package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Connection lifecycle faults
	ErrCodeDuplicateConnection ErrorCode = "DUPLICATE_CONNECTION"
	ErrCodeUnknownConnection   ErrorCode = "UNKNOWN_CONNECTION"

	// Routing errors
	ErrCodeNoAvailableTarget ErrorCode = "NO_AVAILABLE_TARGET"
	ErrCodeInvalidEvent      ErrorCode = "INVALID_EVENT"

	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Process errors
	ErrCodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"
	ErrCodeNotRunning     ErrorCode = "NOT_RUNNING"
	ErrCodeRelayStopped   ErrorCode = "RELAY_STOPPED"

	// General errors
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// PlyError represents a structured error with context
type PlyError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *PlyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PlyError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *PlyError) WithDetail(key string, value interface{}) *PlyError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *PlyError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new PlyError
func New(code ErrorCode, message string) *PlyError {
	return &PlyError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a PlyError
func Wrap(err error, code ErrorCode, message string) *PlyError {
	return &PlyError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific PlyError code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	plyErr, ok := err.(*PlyError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return plyErr.Code
}
