package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindIllegalState
	KindAuthenticationRequired
	KindForbidden
	KindValidation
	KindBadRequest
	KindUpstreamUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:               "INTERNAL_ERROR",
	KindNotFound:               "NOT_FOUND",
	KindConflict:               "CONFLICT",
	KindIllegalState:           "ILLEGAL_STATE",
	KindAuthenticationRequired: "AUTHENTICATION_REQUIRED",
	KindForbidden:              "FORBIDDEN",
	KindValidation:             "VALIDATION_FAILED",
	KindBadRequest:             "BAD_REQUEST",
	KindUpstreamUnavailable:    "UPSTREAM_UNAVAILABLE",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindInternal]
}

// Error is a classified business failure. Message is safe to show clients.
type Error struct {
	Kind    Kind
	Message string
	// ChatIDs names related chats, e.g. the existing personal chat on a
	// duplicate create.
	ChatIDs []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrForbidden)
// works for every forbidden failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrIllegalState           = &Error{Kind: KindIllegalState}
	ErrAuthenticationRequired = &Error{Kind: KindAuthenticationRequired}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrBadRequest             = &Error{Kind: KindBadRequest}
	ErrUpstreamUnavailable    = &Error{Kind: KindUpstreamUnavailable}
)

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func IllegalState(format string, args ...interface{}) *Error {
	return newError(KindIllegalState, format, args...)
}

func AuthenticationRequired(format string, args ...interface{}) *Error {
	return newError(KindAuthenticationRequired, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func BadRequest(format string, args ...interface{}) *Error {
	return newError(KindBadRequest, format, args...)
}

func UpstreamUnavailable(format string, args ...interface{}) *Error {
	return newError(KindUpstreamUnavailable, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-safe message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
