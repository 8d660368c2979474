package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPStatus is the control API status for err.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case "":
		return http.StatusInternalServerError
	case ErrCodeInvalidInput, ErrCodeConfigInvalid, ErrCodeConfigValidation, ErrCodeUnresolvedKey:
		return http.StatusBadRequest
	case ErrCodeConfigNotFound, ErrCodeApplicationMissing, ErrCodeWindowNotFound:
		return http.StatusNotFound
	case ErrCodeMissingCapability, ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeDaemonRunning:
		return http.StatusConflict
	case ErrCodeCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Flatten turns err into the form sent over the control API: the outermost
// code and details, with the cause folded into the message.
func Flatten(err error) *KeyflowError {
	var kerr *KeyflowError
	if !stderrors.As(err, &kerr) {
		return &KeyflowError{Code: ErrCodeInternal, Message: err.Error()}
	}
	out := &KeyflowError{Code: kerr.Code, Message: kerr.Message, Details: kerr.Details}
	if kerr.Cause != nil {
		out.Message += ": " + kerr.Cause.Error()
	}
	return out
}
