package imap

import (
	"context"

	"github.com/movecrm/mailengine/internal/models"
)

// MailEngine defines the read-side operations the engine exposes to the HTTP
// layer. This interface allows handlers to be tested with mock
// implementations.
type MailEngine interface {
	// GetFolders returns the account's full folder list, flattened and annotated.
	GetFolders(ctx context.Context) ([]*models.Folder, error)

	// GetEmails returns one page of the folder's messages.
	GetEmails(ctx context.Context, folder string, opts models.ListOptions) (*models.EmailPage, error)

	// GetEmail returns the full message with the given UID.
	GetEmail(ctx context.Context, folder string, uid models.UID) (*models.Message, error)

	// MarkAsRead adds the \Seen flag on the message.
	MarkAsRead(ctx context.Context, folder string, uid models.UID) error

	// MarkAsUnread removes the \Seen flag from the message.
	MarkAsUnread(ctx context.Context, folder string, uid models.UID) error

	// FlagEmail adds an arbitrary flag on the message.
	FlagEmail(ctx context.Context, folder string, uid models.UID, flag string) error

	// UnflagEmail removes an arbitrary flag from the message.
	UnflagEmail(ctx context.Context, folder string, uid models.UID, flag string) error

	// MoveEmail moves a message between folders.
	MoveEmail(ctx context.Context, sourceFolder, targetFolder string, uid models.UID) error

	// DeleteEmail flags the message deleted and expunges the mailbox.
	DeleteEmail(ctx context.Context, folder string, uid models.UID) error

	// SearchEmails runs an explicit search and returns the matching UIDs.
	SearchEmails(ctx context.Context, folder string, query models.SearchQuery) ([]models.UID, error)

	// GetThread returns the folder's conversation trees.
	GetThread(ctx context.Context, folder string) ([]*models.ThreadNode, error)

	// AppendMessage appends a raw message to a folder (sent-mail archival).
	AppendMessage(ctx context.Context, folder string, raw []byte) error

	// Watch runs an IDLE loop on the folder, invoking fn on mailbox updates.
	Watch(ctx context.Context, folder string, fn WatchFunc)

	// Close shuts the engine down.
	Close()
}

// Ensure Engine implements MailEngine interface
var _ MailEngine = (*Engine)(nil)
