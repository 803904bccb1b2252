// Package apperr classifies request failures into the four outcomes the
// pages know how to present: inline validation messages, conflicts with
// existing rows, authentication failures and store errors.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of an Error.
type Kind uint8

const (
	Validation Kind = iota + 1 // missing or malformed input
	Conflict                   // uniqueness violation
	Auth                       // bad credentials or no session
	Store                      // database or broker failure
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case Auth:
		return "auth"
	case Store:
		return "store"
	}
	return "unknown"
}

// Error carries a Kind, a message safe to show to the member and an
// optional underlying cause that is only logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind, so errors.Is(err,
// apperr.ErrConflict) works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation = &Error{Kind: Validation}
	ErrConflict   = &Error{Kind: Conflict}
	ErrAuth       = &Error{Kind: Auth}
	ErrStore      = &Error{Kind: Store}
)

func Invalid(msg string) error { return &Error{Kind: Validation, Msg: msg} }

func Conflicting(msg string, cause error) error {
	return &Error{Kind: Conflict, Msg: msg, Err: cause}
}

func Unauthorized(msg string) error { return &Error{Kind: Auth, Msg: msg} }

// StoreFailure wraps a database error behind the generic retry message.
func StoreFailure(msg string, cause error) error {
	return &Error{Kind: Store, Msg: msg, Err: cause}
}

// KindOf returns the Kind of err, or Store for errors that were never
// classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Store
}

// Message returns the member-facing text for err.  Unclassified errors get
// the generic retry message so driver details never reach a page.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return GenericRetry
}

// GenericRetry is shown for store failures.
const GenericRetry = "Something went wrong on our side. Please try again later."
