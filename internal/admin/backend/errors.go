package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError reports a rejected backend call. Message carries the server's
// explanation when one was provided.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: error (%d): %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// UserMessage returns the server-provided message suitable for display.
func (e *APIError) UserMessage() string {
	return e.Message
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether the backend rejected the caller's token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}
