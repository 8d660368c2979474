package errors

import (
	"fmt"
)

// ErrorCode names an error condition.
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Input and capability errors
	ErrCodeUnresolvedKey      ErrorCode = "UNRESOLVED_KEY"
	ErrCodeMissingCapability  ErrorCode = "MISSING_CAPABILITY"
	ErrCodeApplicationMissing ErrorCode = "APPLICATION_MISSING"
	ErrCodeWindowNotFound     ErrorCode = "WINDOW_NOT_FOUND"

	// Execution errors
	ErrCodeRunnerFailure ErrorCode = "RUNNER_FAILURE"
	ErrCodeCancelled     ErrorCode = "CANCELLED"
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"

	// Daemon errors
	ErrCodeDaemonRunning    ErrorCode = "DAEMON_RUNNING"
	ErrCodeDaemonNotRunning ErrorCode = "DAEMON_NOT_RUNNING"

	// General errors
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// KeyflowError carries a code the CLI and the control API can act on.
type KeyflowError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

func (e *KeyflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *KeyflowError) Unwrap() error {
	return e.Cause
}

// WithDetail records key=value on e and returns e.
func (e *KeyflowError) WithDetail(key string, value interface{}) *KeyflowError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(code ErrorCode, message string) *KeyflowError {
	return &KeyflowError{
		Code:    code,
		Message: message,
	}
}

// Wrap attaches code and message to err.
func Wrap(err error, code ErrorCode, message string) *KeyflowError {
	return &KeyflowError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether any error in err's tree is a KeyflowError with the given
// code. Joined errors are searched too.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	if kfErr, ok := err.(*KeyflowError); ok && kfErr.Code == code {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return Is(u.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if Is(e, code) {
				return true
			}
		}
	}
	return false
}

// GetCode returns the outermost code in err's chain, or "".
func GetCode(err error) ErrorCode {
	for err != nil {
		if kfErr, ok := err.(*KeyflowError); ok {
			return kfErr.Code
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = unwrapper.Unwrap()
	}
	return ""
}
