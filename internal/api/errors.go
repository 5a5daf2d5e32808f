package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call
type Kind string

const (
	// KindTransport means the request never completed
	KindTransport Kind = "transport"
	// KindStatus means the server answered with an unexpected status
	KindStatus Kind = "status"
	// KindDecode means the status was fine but the body had the wrong shape
	KindDecode Kind = "decode"
)

// ErrUnrecognizedShape is wrapped by decode errors for problem payloads whose
// content carries none, or more than one, of the known kind tags.
var ErrUnrecognizedShape = errors.New("unrecognized problem shape")

// Error is the failure value returned by every Client operation
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	default:
		if e.Err == nil {
			return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
		}
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func statusError(op string, status int) error {
	return &Error{Kind: KindStatus, Op: op, Status: status}
}

func decodeError(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

func kindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return "", false
}

// IsTransport reports whether err is a network failure
func IsTransport(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransport
}

// IsStatus reports whether err is a non-success HTTP status
func IsStatus(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindStatus
}

// IsDecode reports whether err is a malformed response body
func IsDecode(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindDecode
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
