package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a RequestFailed carrying a 404 status.
var ErrNotFound = errors.New("not found")

// RequestFailed is returned when the backend answers with a non-2xx status.
type RequestFailed struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *RequestFailed) Error() string {
	return e.Message
}

func (e *RequestFailed) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Message returns the text a user should see for err: the backend message
// for a RequestFailed, the error text otherwise.
func Message(err error) string {
	var rf *RequestFailed
	if errors.As(err, &rf) {
		return rf.Message
	}
	return err.Error()
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var rf *RequestFailed
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}
