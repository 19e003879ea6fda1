package auth

import (
	"errors"
	"net/http"
)

// Kind classifies facade failures.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindDelivery
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindDelivery:
		return "delivery"
	default:
		return "internal"
	}
}

// StatusCode maps the kind onto an HTTP status.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// User-visible messages.
const (
	MsgInvalidEmail        = "invalid email address"
	MsgInvalidEmailOrCode  = "invalid email or code"
	MsgInvalidOrExpired    = "invalid or expired code"
	MsgUserNotFound        = "user not found"
	MsgNotAuthenticated    = "not authenticated"
	MsgInvalidSession      = "invalid session"
	MsgSessionExpired      = "session expired"
	MsgDeliveryFailed      = "failed to send email"
	MsgInternalServerError = "internal server error"
)

// Error is returned by every facade operation. Msg is safe to show to
// clients; the wrapped cause is for logs only.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, err: cause}
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error classification.
func (e *Error) Kind() Kind { return e.kind }

// Msg returns the client-facing message.
func (e *Error) Msg() string { return e.msg }

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}
