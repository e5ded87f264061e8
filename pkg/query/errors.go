package query

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is wrapped by every FormatError
	ErrFormat = errors.New("query format error")
	// ErrMismatch is wrapped by every MismatchError
	ErrMismatch = errors.New("query reply mismatch")
	// ErrShortReply is returned when a reply ends before the template does
	ErrShortReply = errors.New("query reply too short")
	// ErrTrailingBytes is returned when a reply is longer than its template
	ErrTrailingBytes = errors.New("query reply has unparsed bytes")
)

// FormatError reports a template or argument problem while building a query.
type FormatError struct {
	Template string
	Verb     string
	Reason   string
}

func (e *FormatError) Error() string {
	if e.Verb == "" {
		return fmt.Sprintf("%v: %s in %q", ErrFormat, e.Reason, e.Template)
	}
	return fmt.Sprintf("%v: %%%s: %s in %q", ErrFormat, e.Verb, e.Reason, e.Template)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// MismatchError reports a literal template byte that does not match the reply.
// Actual is -1 when the reply ended at Offset.
type MismatchError struct {
	Offset   int
	Expected byte
	Actual   int
}

func (e *MismatchError) Error() string {
	if e.Actual < 0 {
		return fmt.Sprintf("%v at %d: expected 0x%02x, got end of reply", ErrMismatch, e.Offset, e.Expected)
	}
	return fmt.Sprintf("%v at %d: expected 0x%02x, got 0x%02x", ErrMismatch, e.Offset, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }
