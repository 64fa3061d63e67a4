package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/portal/internal/domain"
)

// ErrorClass groups failures for retry decisions and metrics
type ErrorClass string

const (
	ClassClient  ErrorClass = "client"
	ClassServer  ErrorClass = "server"
	ClassNetwork ErrorClass = "network"
	ClassDecode  ErrorClass = "decode"
)

// Error is returned for every failed API call. It unwraps to the matching
// domain sentinel so callers can use errors.Is.
type Error struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error: %d %s", e.StatusCode, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Display is the text shown to users, without the call-site context that
// wrapping adds
func (e *Error) Display() string {
	return e.Error()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the request may succeed when repeated
func (e *Error) Retryable() bool {
	return e.Class == ClassServer || e.Class == ClassNetwork
}

// newStatusError builds the error for a non-2xx response.
// The message is the response body, or the status text when the body is empty.
func newStatusError(status int, path string, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}

	e := &Error{StatusCode: status, Message: msg}
	switch {
	case status == http.StatusNotFound:
		e.Class, e.Err = ClassClient, domain.ErrNotFound
	case status == http.StatusServiceUnavailable && strings.HasPrefix(path, "/ai/"):
		e.Class, e.Err = ClassServer, domain.ErrGenerationUnavailable
	case status >= 500:
		e.Class, e.Err = ClassServer, domain.ErrServerError
	default:
		e.Class, e.Err = ClassClient, domain.ErrBadRequest
	}
	return e
}

func newNetworkError(err error) *Error {
	return &Error{
		Class:   ClassNetwork,
		Message: fmt.Sprintf("%s: %v", domain.ErrServerOffline, err),
		Err:     domain.ErrServerOffline,
	}
}

func newDecodeError(err error) *Error {
	return &Error{
		Class:   ClassDecode,
		Message: fmt.Sprintf("malformed response: %v", err),
		Err:     err,
	}
}
