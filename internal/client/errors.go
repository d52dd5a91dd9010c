package client

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// TransientNetworkError means the request did not complete: timeout,
// connection refused, DNS failure. Retrying later may succeed.
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

func (e *TransientNetworkError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ServiceError is a completed request answered with a non-2xx status.
type ServiceError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func wrapTransport(op string, err error) error {
	var uErr *url.Error
	if errors.As(err, &uErr) {
		err = uErr.Err
	}
	return &TransientNetworkError{Op: op, Err: err}
}
