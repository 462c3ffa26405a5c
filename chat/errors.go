package chat

import (
	"errors"
	"net/http"
)

// Request validation failures. The messages are returned to callers verbatim.
var (
	ErrMissingBody       = errors.New("No JSON data found in the request.")
	ErrMissingField      = errors.New("Missing 'session_id' or 'text' in the request.")
	ErrMissingCredential = errors.New("Missing 'openai_api_key' in the request.")
)

// UpstreamError wraps any failure while producing a reply: building the model
// client, the model call itself, or parsing its output.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is caller-correctable.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingBody) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrMissingCredential)
}

// StatusCode maps an error from this package onto an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
