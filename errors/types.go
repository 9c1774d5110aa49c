package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Compositor transport errors
	ErrCodeSocketNotConfigured ErrorCode = "SOCKET_NOT_CONFIGURED"
	ErrCodeConnectFailed       ErrorCode = "CONNECT_FAILED"
	ErrCodeWriteFailed         ErrorCode = "WRITE_FAILED"
	ErrCodeReadFailed          ErrorCode = "READ_FAILED"
	ErrCodeStreamClosed        ErrorCode = "STREAM_CLOSED"

	// Protocol errors
	ErrCodeDecodeFailed  ErrorCode = "DECODE_FAILED"
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"

	// Lifecycle errors
	ErrCodeAlreadyStarted ErrorCode = "ALREADY_STARTED"
	ErrCodeNotRunning     ErrorCode = "NOT_RUNNING"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// BarError represents a structured error with context
type BarError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *BarError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *BarError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *BarError) WithDetail(key string, value interface{}) *BarError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *BarError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new BarError
func New(code ErrorCode, message string) *BarError {
	return &BarError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a BarError
func Wrap(err error, code ErrorCode, message string) *BarError {
	return &BarError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific BarError code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, walking the Unwrap chain.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	barErr, ok := err.(*BarError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return barErr.Code
}
