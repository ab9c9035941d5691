package transport

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnauthorized marks the globally fatal 401 path: the session has
// been torn down by the time a caller sees this error.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx backend response carrying the backend's own
// message. Nothing in this layer retries it; the user resubmits.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// AsAPIError unwraps err into an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
