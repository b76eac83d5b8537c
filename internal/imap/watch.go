package imap

import (
	"context"
	"log"
	"time"

	idle "github.com/emersion/go-imap-idle"
	imapclient "github.com/emersion/go-imap/client"
)

// watchRetryBackoff is the backoff duration after an error before retrying IDLE.
const watchRetryBackoff = 10 * time.Second

// WatchFunc is invoked whenever the watched mailbox reports a changed message
// count. The engine emits no events of its own; fanning updates out to UI
// clients is entirely the caller's concern.
type WatchFunc func(folder string, messages uint32)

// Watch runs an IMAP IDLE loop on the given folder and invokes fn on updates.
// It uses a dedicated connection so the worker session stays free for
// fetches and mutations. Blocks until the context is canceled.
func (e *Engine) Watch(ctx context.Context, folder string, fn WatchFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c, err := e.dial()
		if err != nil {
			log.Printf("IMAP IDLE: failed to connect watcher: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(watchRetryBackoff):
			}
			continue
		}

		e.runIdleLoop(ctx, c, folder, fn)
		_ = c.Logout()

		// Small backoff before trying again.
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryBackoff):
		}
	}
}

// runIdleLoop runs the IDLE command and handles mailbox updates.
func (e *Engine) runIdleLoop(ctx context.Context, c *imapclient.Client, folder string, fn WatchFunc) {
	if _, err := c.Select(folder, true); err != nil {
		log.Printf("IMAP IDLE: failed to select %s: %v", folder, err)
		return
	}

	idleClient := idle.NewClient(c)

	updates := make(chan imapclient.Update, 10)
	c.Updates = updates

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- idleClient.IdleWithFallback(stop, 5*time.Second)
	}()

	for {
		select {
		case <-ctx.Done():
			close(stop)
			return
		case err := <-done:
			if err != nil {
				log.Printf("IMAP IDLE: idle loop ended with error: %v", err)
			}
			return
		case update := <-updates:
			if update == nil {
				continue
			}
			mboxUpdate, ok := update.(*imapclient.MailboxUpdate)
			if !ok || mboxUpdate.Mailbox == nil {
				continue
			}
			if mboxUpdate.Mailbox.Messages == 0 {
				continue
			}
			fn(folder, mboxUpdate.Mailbox.Messages)
		}
	}
}
