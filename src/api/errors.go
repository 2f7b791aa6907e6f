package api

import (
	"errors"
	"fmt"
)

var (
	ErrRequestFailed     = errors.New("request failed")
	ErrMalformedResponse = errors.New("malformed response")
)

// RequestFailedError reports a response outside the 2xx range. Message holds the
// server's "error" field when the body carried one.
type RequestFailedError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *RequestFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: GET %s status %d: %s", ErrRequestFailed, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: GET %s status %d", ErrRequestFailed, e.Path, e.StatusCode)
}

func (e *RequestFailedError) Unwrap() error {
	return ErrRequestFailed
}

func malformed(path string, format string, args ...interface{}) error {
	return fmt.Errorf("%w: GET %s: %s", ErrMalformedResponse, path, fmt.Sprintf(format, args...))
}
