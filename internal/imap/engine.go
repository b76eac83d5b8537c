package imap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/movecrm/mailengine/internal/config"
	"github.com/movecrm/mailengine/internal/models"
)

// ErrMessageNotFound is returned when a UID does not exist in the selected
// mailbox.
var ErrMessageNotFound = errors.New("message not found")

const defaultPageLimit = 50

// Engine is the read-side mail engine: one persistent IMAP session plus the
// folder, search, fetch and mutation operations built on top of it.
type Engine struct {
	cfg     *config.Config
	dial    DialFunc
	session *Session
	fetcher *Fetcher
}

// NewEngine creates an engine for the configured account. No connection is
// opened until the first operation.
func NewEngine(cfg *config.Config) *Engine {
	return NewEngineWithDialer(cfg, NewDialer(cfg))
}

// NewEngineWithDialer creates an engine with a custom dialer (used by tests).
func NewEngineWithDialer(cfg *config.Config, dial DialFunc) *Engine {
	return &Engine{
		cfg:     cfg,
		dial:    dial,
		session: NewSession(dial),
		fetcher: NewFetcher(),
	}
}

// Connect brings the session up. Operations connect lazily, so calling this
// is only needed to fail fast at startup.
func (e *Engine) Connect(ctx context.Context) error {
	return e.session.Connect(ctx)
}

// Disconnect logs out if connected.
func (e *Engine) Disconnect() error {
	return e.session.Disconnect()
}

// Reconnect resets an ended or failed session and connects again.
func (e *Engine) Reconnect(ctx context.Context) error {
	return e.session.Reconnect(ctx)
}

// State returns the connection state.
func (e *Engine) State() ConnectionState {
	return e.session.State()
}

// Close shuts the engine down.
func (e *Engine) Close() {
	_ = e.session.Disconnect()
}

func selectMailbox(c *client.Client, folder string) error {
	if _, err := c.Select(folder, false); err != nil {
		return &MailboxError{Mailbox: folder, Err: err}
	}
	return nil
}

// GetFolders returns the account's full folder list, flattened and annotated.
func (e *Engine) GetFolders(ctx context.Context) ([]*models.Folder, error) {
	var folders []*models.Folder
	err := e.session.Do(ctx, func(c *client.Client) error {
		var err error
		folders, err = ListFolders(c)
		return err
	})
	return folders, err
}

// GetEmails returns one page of the folder's messages. Total always reflects
// the full search hit count, even for out-of-range pages.
func (e *Engine) GetEmails(ctx context.Context, folder string, opts models.ListOptions) (*models.EmailPage, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = defaultPageLimit
	}
	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}
	descending := opts.SortOrder != "asc"

	page := &models.EmailPage{
		Messages: []*models.Message{},
		Page:     opts.Page,
		Limit:    opts.Limit,
	}

	err := e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}

		seqNums, err := searchMailbox(c, buildListCriteria(opts.Search))
		if err != nil {
			return err
		}
		page.Total = len(seqNums)

		window := pageWindow(seqNums, opts.Page, opts.Limit, descending)
		if len(window) == 0 {
			return nil
		}

		messages, err := e.fetcher.FetchPage(ctx, c, window, opts.SortOrder)
		if err != nil {
			return err
		}
		page.Messages = messages
		return nil
	})
	if err != nil {
		return nil, err
	}

	return page, nil
}

// GetEmail returns the full message with the given UID.
func (e *Engine) GetEmail(ctx context.Context, folder string, uid models.UID) (*models.Message, error) {
	var msg *models.Message
	err := e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}

		var err error
		msg, err = e.fetcher.FetchByUID(ctx, c, uid)
		if err != nil {
			return err
		}
		if msg == nil {
			return fmt.Errorf("uid %d in %q: %w", uid, folder, ErrMessageNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkAsRead adds the \Seen flag on the message.
func (e *Engine) MarkAsRead(ctx context.Context, folder string, uid models.UID) error {
	return e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}
		return addFlags(c, uid, imap.SeenFlag)
	})
}

// MarkAsUnread removes the \Seen flag from the message.
func (e *Engine) MarkAsUnread(ctx context.Context, folder string, uid models.UID) error {
	return e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}
		return removeFlags(c, uid, imap.SeenFlag)
	})
}

// FlagEmail adds an arbitrary flag (e.g. \Flagged for starring).
func (e *Engine) FlagEmail(ctx context.Context, folder string, uid models.UID, flag string) error {
	return e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}
		return addFlags(c, uid, flag)
	})
}

// UnflagEmail removes an arbitrary flag.
func (e *Engine) UnflagEmail(ctx context.Context, folder string, uid models.UID, flag string) error {
	return e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}
		return removeFlags(c, uid, flag)
	})
}

// MoveEmail moves a message from sourceFolder to targetFolder.
func (e *Engine) MoveEmail(ctx context.Context, sourceFolder, targetFolder string, uid models.UID) error {
	return e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, sourceFolder); err != nil {
			return err
		}
		return moveMessage(c, uid, targetFolder)
	})
}

// DeleteEmail flags the message \Deleted and expunges the mailbox.
func (e *Engine) DeleteEmail(ctx context.Context, folder string, uid models.UID) error {
	return e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}
		return deleteMessage(c, uid)
	})
}

// SearchEmails runs an explicit search and returns the matching UIDs.
func (e *Engine) SearchEmails(ctx context.Context, folder string, query models.SearchQuery) ([]models.UID, error) {
	var uids []models.UID
	err := e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}

		raw, err := c.UidSearch(buildSearchCriteria(query))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		uids = make([]models.UID, len(raw))
		for i, n := range raw {
			uids[i] = models.UID(n)
		}
		return nil
	})
	return uids, err
}

// GetThread returns the folder's conversation trees via the THREAD extension.
func (e *Engine) GetThread(ctx context.Context, folder string) ([]*models.ThreadNode, error) {
	var threads []*models.ThreadNode
	err := e.session.Do(ctx, func(c *client.Client) error {
		if err := selectMailbox(c, folder); err != nil {
			return err
		}

		var err error
		threads, err = fetchThreads(c)
		return err
	})
	return threads, err
}

// AppendMessage appends a raw message to the given folder, marked seen. Used
// to archive sent mail.
func (e *Engine) AppendMessage(ctx context.Context, folder string, raw []byte) error {
	return e.session.Do(ctx, func(c *client.Client) error {
		flags := []string{imap.SeenFlag}
		if err := c.Append(folder, flags, time.Now(), bytes.NewReader(raw)); err != nil {
			return fmt.Errorf("failed to append to %q: %w", folder, err)
		}
		return nil
	})
}
