package scraper

import (
	"errors"
	"fmt"
)

// ErrMalformedPage indicates the profile page did not contain the expected
// embedded data blob. The upstream page format is not under our control, so
// callers treat this as a normal failure mode.
var ErrMalformedPage = errors.New("malformed profile page")

// HTTPStatusError indicates the page source answered with a non-200 status.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http error code: %d", e.Code)
}

// NetworkError wraps a transport-level failure during a page fetch.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
