package imap

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrorKind identifies one of the engine's closed set of error categories.
// Every *Error carries exactly one of these kinds; see Error for the
// results that are not *Error values.
type ErrorKind int

const (
	// KindDisconnected reports that the operation could not run because the
	// transport is closed.
	KindDisconnected ErrorKind = iota
	// KindProtocolError reports malformed or unexpected wire data that is
	// not a tokenizer-level syntax failure (e.g. an untagged response that
	// doesn't match any known grammar).
	KindProtocolError
	// KindCommandFailed wraps a tagged NO response.
	KindCommandFailed
	// KindCommandError wraps a tagged BAD response.
	KindCommandError
	// KindNotSupported reports that a requested operation needs a
	// capability the server never advertised.
	KindNotSupported
	// KindCanceled reports that the caller's context was canceled while a
	// command was outstanding.
	KindCanceled
	// KindIoError wraps a transport-level read/write failure.
	KindIoError
	// KindParseError wraps a tokenizer/parser-level syntax failure.
	KindParseError
)

func (k ErrorKind) String() string {
	switch k {
	case KindDisconnected:
		return "disconnected"
	case KindProtocolError:
		return "protocol error"
	case KindCommandFailed:
		return "command failed"
	case KindCommandError:
		return "command error"
	case KindNotSupported:
		return "not supported"
	case KindCanceled:
		return "canceled"
	case KindIoError:
		return "io error"
	case KindParseError:
		return "parse error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is the engine's closed-kind error type. Transport failures, missing
// capabilities and tagged NO/BAD results that go through the client's
// shared result check are *Error values and can be switched on by Kind.
// Login, Authenticate, Select/Examine, the LIST and STATUS methods, and the
// FETCH, COPY, MOVE, SEARCH, SORT, THREAD and ID methods in the client
// package build an *IMAPError for a NO or BAD result instead, and
// Authenticate returns plain wrapped errors when the SASL mechanism fails;
// those are not *Error values.
type Error struct {
	Kind ErrorKind

	// Codes carries any response codes attached to a CommandFailed or
	// CommandError (e.g. TRYCREATE, ALREADYEXISTS).
	Codes []ResponseCode
	// Text is the human-readable server text, when the error originated
	// from a status response.
	Text string
	// Capability names the capability that was missing, for NotSupported.
	Capability Cap

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindCommandFailed, KindCommandError:
		msg := e.Kind.String() + ": " + e.Text
		if len(e.Codes) > 0 {
			msg += fmt.Sprintf(" %v", e.Codes)
		}
		return msg
	case KindNotSupported:
		return fmt.Sprintf("not supported: capability %v not advertised", e.Capability)
	default:
		if e.cause != nil {
			return e.Kind.String() + ": " + e.cause.Error()
		}
		return e.Kind.String()
	}
}

// Unwrap exposes the wrapped cause, if any, so errors.Is/As keep working
// through this type.
func (e *Error) Unwrap() error {
	return e.cause
}

// Disconnected wraps err as a KindDisconnected error.
func Disconnected(err error) *Error {
	return &Error{Kind: KindDisconnected, cause: eris.Wrap(err, "connection closed")}
}

// ProtocolError builds a KindProtocolError with a stack-carrying cause.
func ProtocolError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindProtocolError, cause: eris.Errorf(format, args...)}
}

// CommandFailed builds a KindCommandFailed error from a tagged NO response.
func CommandFailed(sr *StatusResponse) *Error {
	e := &Error{Kind: KindCommandFailed, Text: sr.Text}
	if sr.Code != "" {
		e.Codes = []ResponseCode{sr.Code}
	}
	return e
}

// CommandError builds a KindCommandError error from a tagged BAD response.
func CommandError(sr *StatusResponse) *Error {
	e := &Error{Kind: KindCommandError, Text: sr.Text}
	if sr.Code != "" {
		e.Codes = []ResponseCode{sr.Code}
	}
	return e
}

// NotSupported builds a KindNotSupported error naming the missing capability.
func NotSupported(cap Cap) *Error {
	return &Error{Kind: KindNotSupported, Capability: cap}
}

// Canceled builds a KindCanceled error wrapping the context's error.
func Canceled(err error) *Error {
	return &Error{Kind: KindCanceled, cause: err}
}

// IoError wraps a transport-level error as KindIoError.
func IoError(err error) *Error {
	return &Error{Kind: KindIoError, cause: eris.Wrap(err, "i/o error")}
}

// ParseError builds a KindParseError describing a tokenizer/grammar failure.
func ParseError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindParseError, cause: eris.Errorf(format, args...)}
}

// Is reports whether err carries the given ErrorKind, looking through
// wrapping via errors.As semantics.
func Is(err error, kind ErrorKind) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
