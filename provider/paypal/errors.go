package paypal

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// TokenError is a non-2xx answer from the OAuth token endpoint.
type TokenError struct {
	StatusCode int
	Body       string
}

func (e *TokenError) Error() string {
	if e.StatusCode == http.StatusUnauthorized {
		return fmt.Sprintf("paypal token request failed: 401 Unauthorized (check that the client id and secret belong to the same REST app and the same environment, live vs sandbox): %s", e.Body)
	}
	return fmt.Sprintf("paypal token request failed: status %d: %s", e.StatusCode, e.Body)
}

// RequestError is a non-2xx answer or a malformed body from the order,
// capture or client-token endpoints.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("paypal %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// TimeoutError is an outbound call that exceeded the configured timeout.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("paypal %s timed out", e.Op)
}

// IsTimeout reports whether err (or its cause) is a TimeoutError.
func IsTimeout(err error) bool {
	_, ok := errors.Cause(err).(*TimeoutError)
	return ok
}
