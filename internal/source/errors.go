package source

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NetworkError reports a transport failure: the service could not be reached
// or did not answer in time.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// InvalidResponseError reports a response that arrived but cannot be used:
// a non-2xx status or a body that is not a list of articles.
type InvalidResponseError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *InvalidResponseError) Error() string {
	msg := fmt.Sprintf("invalid response (status %d): %s", e.StatusCode, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsInvalidResponse(err error) bool {
	var ie *InvalidResponseError
	return errors.As(err, &ie)
}

func snippet(body []byte) string {
	const maxLen = 256
	if len(body) == 0 {
		return "<empty>"
	}
	r := []rune(string(body))
	if len(r) > maxLen {
		return string(r[:maxLen]) + "..."
	}
	return string(r)
}
