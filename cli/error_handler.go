package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/tui/theme"
)

// ErrorHandler turns errors into user-friendly messages.
type ErrorHandler struct {
	Out     io.Writer
	Verbose bool
}

// NewErrorHandler creates a new error handler writing to out.
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{Out: out, Verbose: verbose}
}

// Handle prints err with a hint for the codes users can act on and returns it.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	t := theme.DefaultTheme
	fail := func(format string, args ...interface{}) {
		fmt.Fprintf(h.Out, "%s %s\n", t.Error.Render(theme.IconError), fmt.Sprintf(format, args...))
	}
	hint := func(format string, args ...interface{}) {
		fmt.Fprintln(h.Out, t.Muted.Render(fmt.Sprintf(format, args...)))
	}

	var kfErr *kferrors.KeyflowError
	errors.As(err, &kfErr)

	switch kferrors.GetCode(err) {
	case kferrors.ErrCodeConfigNotFound:
		fail("Configuration not found: %v", detail(kfErr, "path"))
		hint("Create it, or point --config at an existing keyflow.yml.")

	case kferrors.ErrCodeConfigInvalid, kferrors.ErrCodeConfigValidation:
		fail("Invalid configuration: %s", kfErr.Message)
		if kfErr.Cause != nil {
			hint("%v", kfErr.Cause)
		}
		hint("Run 'keyflow config validate' to check the files.")

	case kferrors.ErrCodeDaemonNotRunning:
		fail("The keyflow daemon is not running.")
		hint("Start it with 'keyflow start'.")

	case kferrors.ErrCodeDaemonRunning:
		fail("The keyflow daemon is already running (pid %v).", detail(kfErr, "pid"))
		hint("Stop it with 'keyflow stop'.")

	case kferrors.ErrCodeMissingCapability:
		fail("Missing permission: %v", detail(kfErr, "capability"))
		hint("Grant it in System Settings > Privacy & Security, then restart keyflow.")

	default:
		fail("Error: %v", err)
	}

	if h.Verbose && kfErr != nil && len(kfErr.Details) > 0 {
		keys := make([]string, 0, len(kfErr.Details))
		for k := range kfErr.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			hint("  %s: %v", k, kfErr.Details[k])
		}
	}
	return err
}

func detail(err *kferrors.KeyflowError, key string) interface{} {
	if err == nil || err.Details[key] == nil {
		return "unknown"
	}
	return err.Details[key]
}
