package imap

import (
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/movecrm/mailengine/internal/models"
)

func uidSet(uid models.UID) *imap.SeqSet {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))
	return seqSet
}

// addFlags adds flags on a single message by UID (silent store).
func addFlags(c *client.Client, uid models.UID, flags ...string) error {
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	values := make([]interface{}, len(flags))
	for i, f := range flags {
		values[i] = f
	}

	if err := c.UidStore(uidSet(uid), item, values, nil); err != nil {
		return &FlagError{UID: uid, Err: err}
	}
	return nil
}

// removeFlags removes flags on a single message by UID (silent store).
func removeFlags(c *client.Client, uid models.UID, flags ...string) error {
	item := imap.FormatFlagsOp(imap.RemoveFlags, true)
	values := make([]interface{}, len(flags))
	for i, f := range flags {
		values[i] = f
	}

	if err := c.UidStore(uidSet(uid), item, values, nil); err != nil {
		return &FlagError{UID: uid, Err: err}
	}
	return nil
}

// deleteMessage is a two-phase delete: store \Deleted on the target UID, then
// expunge the mailbox. A failure between the phases leaves the message
// flagged-but-present; any later expunge completes it. This is at-least-once,
// not atomic, and no rollback is attempted.
func deleteMessage(c *client.Client, uid models.UID) error {
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(uidSet(uid), item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return &DeleteError{UID: uid, Err: err}
	}

	if err := c.Expunge(nil); err != nil {
		return &DeleteError{UID: uid, Err: fmt.Errorf("expunge after flagging: %w", err)}
	}
	return nil
}

// moveMessage prefers the native MOVE command and falls back to
// copy + mark-deleted + expunge when the server does not support it.
func moveMessage(c *client.Client, uid models.UID, target string) error {
	supported, err := c.Support("MOVE")
	if err != nil {
		return &MoveError{UID: uid, Target: target, Err: err}
	}

	if supported {
		if err := c.UidMove(uidSet(uid), target); err == nil {
			return nil
		}
		// Some servers advertise MOVE but refuse it for certain mailboxes.
		// The copy fallback below covers those too.
	}

	if err := c.UidCopy(uidSet(uid), target); err != nil {
		return &MoveError{UID: uid, Target: target, Err: err}
	}

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(uidSet(uid), item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return &MoveError{UID: uid, Target: target, Err: fmt.Errorf("copied but not removed from source: %w", err)}
	}

	if err := c.Expunge(nil); err != nil {
		return &MoveError{UID: uid, Target: target, Err: fmt.Errorf("copied but expunge failed: %w", err)}
	}
	return nil
}
