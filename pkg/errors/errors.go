// Package errors gives every failure of a graph store, storage backend or
// render a machine-readable [Code].
//
// The HTTP API reports the code next to the message, the CLI prints only
// the message (see [UserMessage]), and the store uses [SeverityOf] to decide
// whether a rejected operation is worth a warning:
//
//	err := errors.New(errors.ErrCodeNotFound, "node %q", id)
//	if errors.IsNotFound(err) {
//	    // the node was already deleted
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code names a class of failure. Codes are stable and part of the HTTP API.
type Code string

const (
	ErrCodeInvalidInput     Code = "INVALID_INPUT"     // malformed argument
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"    // undecodable snapshot or map
	ErrCodeInvalidName      Code = "INVALID_NAME"      // diagram or snapshot name
	ErrCodeInvalidPath      Code = "INVALID_PATH"      // path escapes its root
	ErrCodeInvalidOperation Code = "INVALID_OPERATION" // e.g. connecting a node to itself
	ErrCodeInvalidState     Code = "INVALID_STATE"     // e.g. toggling a node that is not a group

	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	ErrCodeSnapshotNotFound Code = "SNAPSHOT_NOT_FOUND"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// notFound holds the codes of references to something absent.
var notFound = map[Code]bool{
	ErrCodeNotFound:         true,
	ErrCodeTemplateNotFound: true,
	ErrCodeSnapshotNotFound: true,
}

// Severity separates failures a caller routinely triggers from ones that
// indicate misuse of the API.
type Severity int

const (
	// SeverityExpected marks a harmless no-op, such as referencing a node
	// that was already deleted.
	SeverityExpected Severity = iota
	// SeverityUnexpected marks a structurally nonsensical request.
	SeverityUnexpected
)

func (s Severity) String() string {
	if s == SeverityUnexpected {
		return "unexpected"
	}
	return "expected"
}

// Error is a coded error. Message is meant for users; Cause, if set, is
// reachable through errors.Is and errors.As.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Severity is expected for the not-found codes and unexpected otherwise.
func (e *Error) Severity() Severity {
	if notFound[e.Code] {
		return SeverityExpected
	}
	return SeverityUnexpected
}

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with an underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// as returns the outermost *Error in err's chain.
func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has one of codes.
func Is(err error, codes ...Code) bool {
	e, ok := as(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}

// GetCode returns the code of err, or "" for uncoded errors.
func GetCode(err error) Code {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns err without its code prefix or cause.
func UserMessage(err error) string {
	if e, ok := as(err); ok {
		return e.Message
	}
	return err.Error()
}

// SeverityOf classifies err. Uncoded errors are unexpected.
func SeverityOf(err error) Severity {
	if e, ok := as(err); ok {
		return e.Severity()
	}
	return SeverityUnexpected
}

// IsNotFound reports whether err carries any of the not-found codes.
func IsNotFound(err error) bool {
	return SeverityOf(err) == SeverityExpected
}
