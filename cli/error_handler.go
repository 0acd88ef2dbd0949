package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/bleikamp/ply/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	plyErr, _ := err.(*errors.PlyError)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "❌ Configuration not found: %v\n", detail(plyErr, "path"))
		fmt.Fprintf(h.Out, "Create ply.yml or run 'ply config schema' to see the available settings.\n")

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(h.Out, "❌ Invalid configuration: %v\n", err)

	case errors.ErrCodeAlreadyRunning:
		fmt.Fprintf(h.Out, "❌ Relay already running (PID %v)\n", detail(plyErr, "pid"))
		fmt.Fprintf(h.Out, "Stop it with 'ply relay stop'.\n")

	case errors.ErrCodeNotRunning:
		fmt.Fprintf(h.Out, "❌ Relay is not running\n")
		fmt.Fprintf(h.Out, "Start it with 'ply relay start'.\n")

	case errors.ErrCodeNoAvailableTarget:
		fmt.Fprintf(h.Out, "❌ No browser target is connected to the relay\n")

	case errors.ErrCodeRelayStopped:
		fmt.Fprintf(h.Out, "❌ The relay is shutting down\n")

	default:
		fmt.Fprintf(h.Out, "❌ Error: %v\n", err)
	}

	if h.Verbose && plyErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", plyErr.ToJSON())
	}
	return err
}

func detail(err *errors.PlyError, key string) interface{} {
	if err == nil || err.Details == nil {
		return "unknown"
	}
	if v, ok := err.Details[key]; ok {
		return v
	}
	return "unknown"
}
