package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies calculation failures.
type ErrorKind string

const (
	// KindParse is a malformed expression or one outside the permitted grammar.
	KindParse ErrorKind = "ParseError"
	// KindDomain is an argument outside a function's domain (e.g. factorial of -1).
	KindDomain ErrorKind = "DomainError"
	// KindArithmetic is division by zero, a math domain violation or an overflow.
	KindArithmetic ErrorKind = "ArithmeticError"
	// KindInputType is non-numeric text where a plain number was expected.
	KindInputType ErrorKind = "InputTypeError"
	// KindLimit is a numeric input above the configured resource bound.
	KindLimit ErrorKind = "LimitError"
	// KindInput is raw input rejected before parsing (size, encoding).
	KindInput ErrorKind = "InputError"
)

// Error is a typed calculation failure.
// Two Errors match under errors.Is when the target carries no message and the kinds are equal,
// which makes the Err* sentinels usable as kind checks.
type Error struct {
	Kind ErrorKind `json:"kind"`
	Msg  string    `json:"error"`
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// Sentinels for errors.Is checks.
var (
	ErrParse      = &Error{Kind: KindParse}
	ErrDomain     = &Error{Kind: KindDomain}
	ErrArithmetic = &Error{Kind: KindArithmetic}
	ErrInputType  = &Error{Kind: KindInputType}
	ErrLimit      = &Error{Kind: KindLimit}
	ErrInput      = &Error{Kind: KindInput}
)

// NewError builds a typed error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind of err, or "" when err is not a calculation error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrHistoryIndex is returned when a history entry index is out of range.
var ErrHistoryIndex = errors.New("history index out of range")

// ErrUnknownTransform is returned for a transform op that does not exist.
var ErrUnknownTransform = errors.New("unknown transform")
