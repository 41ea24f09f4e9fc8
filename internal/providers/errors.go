package providers

import (
	"fmt"
	"io"
	"net/http"
)

// APIError wraps a provider HTTP failure with context. The message may
// contain raw response bodies; the rotation orchestrator decides whether it
// ever reaches the user.
type APIError struct {
	Provider   string
	Op         string // Operation: "list", "create", "update", "delete", "lookup", "encrypt"
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s error (status %d): %s", e.Provider, e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s error: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s error: %s", e.Provider, e.Op, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// statusError drains up to 4KiB of the response body into an APIError.
func statusError(provider, op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		Provider:   provider,
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
}

// success reports whether code is a 2xx status.
func success(code int) bool {
	return code >= 200 && code < 300
}
