package netmd

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned when the device refuses a command outright
	ErrNotImplemented = errors.New("netmd: not implemented")
	// ErrRejected is wrapped by every RejectedError
	ErrRejected = errors.New("netmd: rejected")
	// ErrValidation marks arguments that violate a fixed size or range
	ErrValidation = errors.New("netmd: invalid argument")
	// ErrNoMatchingEKB is returned when no known key block fits the device
	ErrNoMatchingEKB = errors.New("netmd: no matching EKB for device")
	// ErrGroupCorrupted is returned when the disc title encodes inconsistent groups
	ErrGroupCorrupted = errors.New("netmd: track group list corrupted")
	// ErrEmptyReply is returned when the device answers with zero bytes
	ErrEmptyReply = errors.New("netmd: empty reply")
	// ErrPollTimeout is returned when the reply length poll gives up
	ErrPollTimeout = errors.New("netmd: no reply from device")
	// ErrNotSupported is returned when the device lacks a required capability
	ErrNotSupported = errors.New("netmd: not supported by device")
)

// RejectedError carries the raw reply of a rejected command, or the reason
// the interim retry loop gave up.
type RejectedError struct {
	Reply  []byte
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s", ErrRejected, e.Reason)
	}
	return fmt.Sprintf("%v - %s", ErrRejected, hex.EncodeToString(e.Reply))
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}
