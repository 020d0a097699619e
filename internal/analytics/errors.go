package analytics

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrUnsuccessful is returned when the backend answers 200 but reports
// success=false in the body.
var ErrUnsuccessful = errors.New("analytics API reported an unsuccessful response")

// HTTPError is a non-2xx answer from the analytics API. The body is not read.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("analytics API returned %s", e.Status)
}

// NetworkError wraps transport failures: refused connections, resets and
// timeouts.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("analytics API unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}
