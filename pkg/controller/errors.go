package controller

import (
	"errors"
	"fmt"
	"net/http"
)

// UnreachableError reports that the controller daemon could not be reached
// at all: connection refused, timeout, DNS failure. It wraps the transport
// error.
type UnreachableError struct {
	// Endpoint is the base URL the client tried to reach.
	Endpoint string

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *UnreachableError) Error() string {
	return fmt.Sprintf("controller unreachable at %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx response from the controller API.
type StatusError struct {
	// Op describes the request, e.g. "GET /controller/network".
	Op string

	// Code is the HTTP status code.
	Code int

	// Body is the trimmed response body, useful for diagnostics.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("controller %s returned %d: %s", e.Op, e.Code, e.Body)
	}
	return fmt.Sprintf("controller %s returned %d", e.Op, e.Code)
}

// IsUnreachable returns true if err indicates the controller daemon could
// not be reached. Callers use this to distinguish "daemon down" from
// "daemon rejected the request".
func IsUnreachable(err error) bool {
	var e *UnreachableError
	return errors.As(err, &e)
}

// IsNotFound returns true if err is a 404 response from the controller.
func IsNotFound(err error) bool {
	var e *StatusError
	if errors.As(err, &e) {
		return e.Code == http.StatusNotFound
	}
	return false
}

// IsUnauthorized returns true if err is a 401 response, which almost always
// means a wrong or missing auth token.
func IsUnauthorized(err error) bool {
	var e *StatusError
	if errors.As(err, &e) {
		return e.Code == http.StatusUnauthorized
	}
	return false
}
