// Package dErrors defines coded domain errors shared across services and
// transports. Stores return sentinel errors (pkg/platform/sentinel); services
// translate them into coded errors here so handlers can map codes to HTTP
// statuses without inspecting store internals.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain error.
type Code string

const (
	CodeBadRequest      Code = "bad_request"
	CodeUnauthorized    Code = "unauthorized"
	CodeNotFound        Code = "not_found"
	CodeConflict        Code = "conflict"
	CodeDuplicateAction Code = "duplicate_action"
	CodeUnavailable     Code = "unavailable"
	CodeInternal        Code = "internal"
)

// GatewayError carries a code alongside the message so transports can build
// consistent error envelopes.
type GatewayError struct {
	Code    Code
	Message string
	err     error
}

func (e GatewayError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e GatewayError) Unwrap() error { return e.err }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return GatewayError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return GatewayError{Code: code, Message: message, err: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var ge GatewayError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// HasCode is an alias kept for call-site readability in tests.
func HasCode(err error, code Code) bool { return Is(err, code) }

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeDuplicateAction:
		// Duplicate scoring events are a successful no-op for idempotent
		// producers, surfaced as 200 with a warning in the envelope.
		return http.StatusOK
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
