package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedResponse is wrapped when a registry body is not valid JSON
	ErrMalformedResponse = errors.New("malformed response body")

	// ErrInvalidPayload is wrapped when a payload does not match the expected schema
	ErrInvalidPayload = errors.New("unexpected response shape")
)

// FetchError reports a failed outbound registry request: a transport error,
// a non-success status code, or a body that could not be used.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("HTTP %d from %s: %v", e.StatusCode, e.URL, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a FetchError carrying a 404 status
func IsNotFound(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.StatusCode == http.StatusNotFound
}
