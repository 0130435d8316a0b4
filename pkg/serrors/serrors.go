// Package serrors classifies pipeline failures so that transports (HTTP
// handlers, the CLI) can report them consistently.
package serrors

import (
	"fmt"

	"github.com/go-faster/errors"
)

type Kind string

const (
	// KindInput is a problem with the submitted file or form. No upstream
	// call has been made when it is returned.
	KindInput Kind = "input"
	// KindUpstream is a GraphQL response without the expected data shape.
	KindUpstream Kind = "upstream"
	// KindCountMismatch is a bulk call that returned fewer records than sent.
	KindCountMismatch Kind = "count_mismatch"
	KindInternal      Kind = "internal"
)

// Error is a classified error. Code is a stable machine-readable identifier
// such as PLAN_PARSE_FAILED.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code string, err error, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Input(code string, err error, message string) *Error {
	return Wrap(KindInput, code, err, message)
}

func Upstream(code string, err error, message string) *Error {
	return Wrap(KindUpstream, code, err, message)
}

// KindOf returns the Kind of the first classified error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the Code of the first classified error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return "INTERNAL_ERROR"
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
