package youtube

import (
	"errors"
	"fmt"
)

// Sentinel errors for the YouTube client.
var (
	// ErrEmptyAPIKey indicates that the API key was not provided.
	ErrEmptyAPIKey = errors.New("API key is required")

	// ErrRequestFailed indicates the request itself failed (network error).
	ErrRequestFailed = errors.New("http request failed")

	// ErrMalformedPage indicates a list response body that is not a JSON object.
	ErrMalformedPage = errors.New("malformed page")
)

// maxErrorBody bounds how much of a response body ends up in log lines.
const maxErrorBody = 512

// HTTPError is a non-2xx response. It keeps the status and the raw body so
// the provider payload can still be classified after the transport gave up.
type HTTPError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body is the response body.
	Body []byte
	// Endpoint is the request URL without its query string (the query holds the key).
	Endpoint string
}

// Error returns a string representation of the HTTP error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.Endpoint, e.StatusCode)
}

// APIError is a failed API call after provider classification.
type APIError struct {
	Reason     Reason
	Message    string
	StatusCode int
	Err        error
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("youtube api: %s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube api: %s (status %d): %s", e.Reason, e.StatusCode, e.Message)
}

// Unwrap exposes the underlying transport error and, for classified
// reasons, the matching apierr sentinel.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if s := e.Reason.sentinel(); s != nil {
		errs = append(errs, s)
	}
	return errs
}

// truncateBody shortens a body for logging.
func truncateBody(b []byte) string {
	if len(b) <= maxErrorBody {
		return string(b)
	}
	return string(b[:maxErrorBody]) + "..."
}
