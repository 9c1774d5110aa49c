package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/pkg/niri/ipc"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	out     io.Writer
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		out:     os.Stderr,
	}
}

// WithWriter redirects the messages, stderr by default.
func (h *ErrorHandler) WithWriter(w io.Writer) *ErrorHandler {
	h.out = w
	return h
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	red := DefaultTheme.Bold.Foreground(DefaultTheme.Colors.Red)
	prefix := red.Render("Error:")
	hint := func(format string, args ...interface{}) {
		fmt.Fprintln(h.out, DefaultTheme.Muted.Render(fmt.Sprintf(format, args...)))
	}

	be, _ := err.(*errors.BarError)
	detail := func(key string) interface{} {
		if be == nil {
			return ""
		}
		return be.Details[key]
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeSocketNotConfigured:
		fmt.Fprintf(h.out, "%s the compositor socket is not configured\n", prefix)
		hint("Run niribar inside a niri session, or set %s or socket.path in the config file.", ipc.EnvSocket)

	case errors.ErrCodeConnectFailed:
		fmt.Fprintf(h.out, "%s cannot connect to %v\n", prefix, detail("socket"))
		hint("Is the process behind the socket running?")

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.out, "%s configuration file %v not found\n", prefix, detail("path"))

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(h.out, "%s invalid configuration: %v\n", prefix, err)
		hint("See schema/niribar.schema.json for the accepted keys.")

	case errors.ErrCodeAlreadyStarted:
		fmt.Fprintf(h.out, "%s already running (pid %v)\n", prefix, detail("pid"))

	case errors.ErrCodeNotRunning:
		fmt.Fprintf(h.out, "%s niribar serve is not running\n", prefix)
		hint("Start it with 'niribar serve'.")

	default:
		fmt.Fprintf(h.out, "%s %v\n", prefix, err)
	}

	if h.Verbose && be != nil {
		fmt.Fprintf(h.out, "\nError details:\n%s\n", be.ToJSON())
	}
	return err
}
