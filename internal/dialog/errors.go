package dialog

import (
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted is wrapped when every attempt of a submit, poll or
	// close sequence failed.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrBackendFailure is wrapped when the backend answered with an
	// explicit failure status.
	ErrBackendFailure = errors.New("backend reported failure")
	// ErrDialogClosed is wrapped when a closed dialog is used again.
	ErrDialogClosed = errors.New("dialog closed")
)

// ProtocolError reports a failed exchange with the AI backend.
type ProtocolError struct {
	Op       string // "submit", "poll" or "close"
	Dialog   string
	Attempts int
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dialog %s %s after %d attempt(s): %v", e.Dialog, e.Op, e.Attempts, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
