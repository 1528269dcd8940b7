package ai

import "fmt"

// TransportError is a network-level failure: DNS, refused connection, timeout.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("Network error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx answer from the proxied endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API request failed: %d %s", e.StatusCode, e.Body)
}

// UnexpectedError covers everything else, response decoding included.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string { return fmt.Sprintf("Unexpected error: %v", e.Err) }
func (e *UnexpectedError) Unwrap() error { return e.Err }
