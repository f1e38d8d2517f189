// Package kernel holds the pieces every module builds on: the structured
// failure carried by command results and the aggregate contract the unit of
// work relies on.
package kernel

import (
	"errors"
	"fmt"
)

// Kind classifies a failure independently of the module that produced it.
type Kind string

const (
	KindValidation   Kind = "Validation"
	KindNotFound     Kind = "NotFound"
	KindConflict     Kind = "Conflict"
	KindUnauthorized Kind = "Unauthorized"
	KindForbidden    Kind = "Forbidden"
)

// Error is a business failure: a stable dotted code, a human-readable message
// and a kind. Two errors are the same failure when their codes match.
type Error struct {
	Code    string
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// Validation returns an input validation failure.
func Validation(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: KindValidation}
}

// NotFound returns a missing-entity failure.
func NotFound(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: KindNotFound}
}

// Conflict returns a state conflict failure.
func Conflict(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: KindConflict}
}

// Unauthorized returns an authentication failure.
func Unauthorized(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: KindUnauthorized}
}

// Forbidden returns an authorization failure.
func Forbidden(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: KindForbidden}
}

// AsError extracts the business failure from err, if there is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
