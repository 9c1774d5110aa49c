package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *BarError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *BarError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// SocketNotConfigured reports that the compositor socket path is unknown.
func SocketNotConfigured(envVar string) *BarError {
	return New(ErrCodeSocketNotConfigured, fmt.Sprintf("%s is not set; is niri running?", envVar)).
		WithDetail("env", envVar)
}

// ConnectFailed creates a socket connect error
func ConnectFailed(path string, err error) *BarError {
	return Wrap(err, ErrCodeConnectFailed, fmt.Sprintf("failed to connect to %s", path)).
		WithDetail("socket", path)
}

// WriteFailed creates a socket write error
func WriteFailed(path string, err error) *BarError {
	return Wrap(err, ErrCodeWriteFailed, "failed to write to compositor socket").
		WithDetail("socket", path)
}

// ReadFailed creates a socket read error
func ReadFailed(path string, err error) *BarError {
	return Wrap(err, ErrCodeReadFailed, "failed to read from compositor socket").
		WithDetail("socket", path)
}

// StreamClosed reports that the compositor closed the event stream.
func StreamClosed(path string) *BarError {
	return New(ErrCodeStreamClosed, "compositor closed the event stream").
		WithDetail("socket", path)
}

// DecodeFailed creates a wire decode error for one line.
func DecodeFailed(reason string, err error) *BarError {
	if err == nil {
		return New(ErrCodeDecodeFailed, reason)
	}
	return Wrap(err, ErrCodeDecodeFailed, reason)
}

// CommandFailed creates a command send failure error
func CommandFailed(action string, err error) *BarError {
	return Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", action)).
		WithDetail("action", action)
}

// InvalidInput creates an invalid input error
func InvalidInput(reason string) *BarError {
	return New(ErrCodeInvalidInput, reason)
}
