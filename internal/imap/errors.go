package imap

import (
	"fmt"

	"github.com/movecrm/mailengine/internal/models"
)

// ConnectionError reports a connect failure or an operation attempted while
// the session is not ready. It is surfaced to the caller and never retried
// inside the engine.
type ConnectionError struct {
	State ConnectionState
	Err   error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("imap: connection failed (state %s): %v", e.State, e.Err)
	}
	return fmt.Sprintf("imap: session not ready (state %s)", e.State)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// MailboxError reports a mailbox-select failure. It aborts only the one
// operation that triggered the select.
type MailboxError struct {
	Mailbox string
	Err     error
}

func (e *MailboxError) Error() string {
	return fmt.Sprintf("imap: failed to select mailbox %q: %v", e.Mailbox, e.Err)
}

func (e *MailboxError) Unwrap() error { return e.Err }

// DecodeError reports a per-message MIME decode failure. It is logged by the
// fetcher and never aborts a batch.
type DecodeError struct {
	Seq models.SeqNum
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("imap: failed to decode message %d: %v", e.Seq, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FlagError reports a failed flag store operation.
type FlagError struct {
	UID models.UID
	Err error
}

func (e *FlagError) Error() string {
	return fmt.Sprintf("imap: failed to update flags on message %d: %v", e.UID, e.Err)
}

func (e *FlagError) Unwrap() error { return e.Err }

// MoveError reports a failed move (native or copy-based fallback).
type MoveError struct {
	UID    models.UID
	Target string
	Err    error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("imap: failed to move message %d to %q: %v", e.UID, e.Target, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// DeleteError reports a failed delete. A failure after the \Deleted store but
// before the expunge leaves the message flagged-but-present; a later expunge
// on the mailbox completes the deletion.
type DeleteError struct {
	UID models.UID
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("imap: failed to delete message %d: %v", e.UID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
