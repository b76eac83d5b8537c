package imap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/movecrm/mailengine/internal/models"
	"github.com/movecrm/mailengine/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, server *testutil.TestIMAPServer) *Engine {
	t.Helper()
	cfg := testutil.NewTestConfig(t, server, nil)
	engine := NewEngine(cfg)
	t.Cleanup(engine.Close)
	return engine
}

func seedInbox(t *testing.T, server *testutil.TestIMAPServer, count int) []uint32 {
	t.Helper()
	server.ClearMailbox(t, "INBOX")
	uids := make([]uint32, count)
	for i := 0; i < count; i++ {
		uids[i] = server.AddMessage(t, "INBOX",
			fmt.Sprintf("<inbox-%d@example.com>", i+1),
			fmt.Sprintf("Msg %d", i+1),
			"alice@example.com", "account@example.com",
			time.Date(2024, 1, i+1, 10, 0, 0, 0, time.UTC))
	}
	return uids
}

func TestEngineGetFolders(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	server.CreateFolder(t, "Work/Clients")

	engine := newTestEngine(t, server)

	folders, err := engine.GetFolders(context.Background())
	require.NoError(t, err)

	byPath := make(map[string]*models.Folder)
	for _, f := range folders {
		byPath[f.Path] = f
	}

	require.Contains(t, byPath, "INBOX")
	assert.Equal(t, models.SpecialUseInbox, byPath["INBOX"].SpecialUse)
	assert.Equal(t, 0, byPath["INBOX"].Level)

	require.Contains(t, byPath, "Work/Clients")
	assert.Equal(t, 1, byPath["Work/Clients"].Level)
	require.Contains(t, byPath, "Work")
	assert.True(t, byPath["Work"].HasChildren)
}

func TestEngineGetEmails(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	seedInbox(t, server, 5)

	engine := newTestEngine(t, server)

	t.Run("first page descending returns the newest messages", func(t *testing.T) {
		page, err := engine.GetEmails(context.Background(), "INBOX", models.ListOptions{
			Page: 1, Limit: 2, SortOrder: "desc",
		})
		require.NoError(t, err)

		assert.Equal(t, 5, page.Total)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, "Msg 5", page.Messages[0].Envelope.Subject)
		assert.Equal(t, "Msg 4", page.Messages[1].Envelope.Subject)
		assert.True(t, page.Messages[0].Date.After(page.Messages[1].Date))
	})

	t.Run("second page continues the descending order", func(t *testing.T) {
		page, err := engine.GetEmails(context.Background(), "INBOX", models.ListOptions{
			Page: 2, Limit: 2, SortOrder: "desc",
		})
		require.NoError(t, err)

		assert.Equal(t, 5, page.Total)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, "Msg 3", page.Messages[0].Envelope.Subject)
		assert.Equal(t, "Msg 2", page.Messages[1].Envelope.Subject)
	})

	t.Run("page past the end is empty but keeps the total", func(t *testing.T) {
		page, err := engine.GetEmails(context.Background(), "INBOX", models.ListOptions{
			Page: 4, Limit: 2, SortOrder: "desc",
		})
		require.NoError(t, err)

		assert.Equal(t, 5, page.Total)
		assert.Empty(t, page.Messages)
	})

	t.Run("ascending order starts at the oldest", func(t *testing.T) {
		page, err := engine.GetEmails(context.Background(), "INBOX", models.ListOptions{
			Page: 1, Limit: 2, SortOrder: "asc",
		})
		require.NoError(t, err)

		require.Len(t, page.Messages, 2)
		assert.Equal(t, "Msg 1", page.Messages[0].Envelope.Subject)
		assert.Equal(t, "Msg 2", page.Messages[1].Envelope.Subject)
	})

	t.Run("defaults apply when options are zero", func(t *testing.T) {
		page, err := engine.GetEmails(context.Background(), "INBOX", models.ListOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, page.Page)
		assert.Equal(t, defaultPageLimit, page.Limit)
		assert.Len(t, page.Messages, 5)
		assert.Equal(t, "Msg 5", page.Messages[0].Envelope.Subject)
	})

	t.Run("free-text search narrows the listing", func(t *testing.T) {
		page, err := engine.GetEmails(context.Background(), "INBOX", models.ListOptions{
			Search: "Msg 3",
		})
		require.NoError(t, err)

		assert.Equal(t, 1, page.Total)
		require.Len(t, page.Messages, 1)
		assert.Equal(t, "Msg 3", page.Messages[0].Envelope.Subject)
	})

	t.Run("unknown folder yields a mailbox error", func(t *testing.T) {
		_, err := engine.GetEmails(context.Background(), "NoSuchFolder", models.ListOptions{})

		var mboxErr *MailboxError
		require.ErrorAs(t, err, &mboxErr)
		assert.Equal(t, "NoSuchFolder", mboxErr.Mailbox)
	})
}

func TestEngineGetEmail(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	uids := seedInbox(t, server, 2)

	engine := newTestEngine(t, server)

	t.Run("returns the full message by UID", func(t *testing.T) {
		msg, err := engine.GetEmail(context.Background(), "INBOX", models.UID(uids[0]))
		require.NoError(t, err)

		assert.Equal(t, models.UID(uids[0]), msg.UID)
		require.NotNil(t, msg.Envelope)
		assert.Equal(t, "Msg 1", msg.Envelope.Subject)
	})

	t.Run("unknown UID maps to not found", func(t *testing.T) {
		_, err := engine.GetEmail(context.Background(), "INBOX", models.UID(99999))
		assert.ErrorIs(t, err, ErrMessageNotFound)
	})
}

func TestEngineFlagOperations(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	uids := seedInbox(t, server, 1)
	uid := models.UID(uids[0])

	engine := newTestEngine(t, server)
	ctx := context.Background()

	flagsOf := func(t *testing.T) []string {
		msg, err := engine.GetEmail(ctx, "INBOX", uid)
		require.NoError(t, err)
		return msg.Flags
	}

	// A fresh message is unread; the fetch itself must not mark it seen.
	assert.False(t, hasFlag(flagsOf(t), "\\Seen"))

	require.NoError(t, engine.MarkAsRead(ctx, "INBOX", uid))
	assert.True(t, hasFlag(flagsOf(t), "\\Seen"))

	require.NoError(t, engine.MarkAsUnread(ctx, "INBOX", uid))
	assert.False(t, hasFlag(flagsOf(t), "\\Seen"))

	require.NoError(t, engine.FlagEmail(ctx, "INBOX", uid, "\\Flagged"))
	assert.True(t, hasFlag(flagsOf(t), "\\Flagged"))

	require.NoError(t, engine.UnflagEmail(ctx, "INBOX", uid, "\\Flagged"))
	assert.False(t, hasFlag(flagsOf(t), "\\Flagged"))
}

func TestEngineDeleteEmail(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	uids := seedInbox(t, server, 3)

	engine := newTestEngine(t, server)
	ctx := context.Background()

	require.NoError(t, engine.DeleteEmail(ctx, "INBOX", models.UID(uids[1])))

	page, err := engine.GetEmails(ctx, "INBOX", models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	_, err = engine.GetEmail(ctx, "INBOX", models.UID(uids[1]))
	assert.ErrorIs(t, err, ErrMessageNotFound)

	// The remaining messages keep their durable UIDs.
	msg, err := engine.GetEmail(ctx, "INBOX", models.UID(uids[2]))
	require.NoError(t, err)
	assert.Equal(t, "Msg 3", msg.Envelope.Subject)
}

func TestEngineMoveEmail(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	uids := seedInbox(t, server, 2)
	server.CreateFolder(t, "Archive")

	engine := newTestEngine(t, server)
	ctx := context.Background()

	require.NoError(t, engine.MoveEmail(ctx, "INBOX", "Archive", models.UID(uids[0])))

	inbox, err := engine.GetEmails(ctx, "INBOX", models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, inbox.Total)

	archive, err := engine.GetEmails(ctx, "Archive", models.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, archive.Total)
	assert.Equal(t, "Msg 1", archive.Messages[0].Envelope.Subject)

	t.Run("move to an unknown folder fails", func(t *testing.T) {
		err := engine.MoveEmail(ctx, "INBOX", "NoSuchFolder", models.UID(uids[1]))

		var moveErr *MoveError
		require.ErrorAs(t, err, &moveErr)
		assert.Equal(t, "NoSuchFolder", moveErr.Target)
	})
}

func TestEngineSearchEmails(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	uids := seedInbox(t, server, 4)

	engine := newTestEngine(t, server)

	found, err := engine.SearchEmails(context.Background(), "INBOX", models.SearchQuery{
		Subject: "Msg 2",
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.UID(uids[1]), found[0])

	all, err := engine.SearchEmails(context.Background(), "INBOX", models.SearchQuery{
		From: "alice@example.com",
	})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestEngineAppendMessage(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	server.CreateFolder(t, "Sent")

	engine := newTestEngine(t, server)
	ctx := context.Background()

	raw := []byte("Message-ID: <sent-1@example.com>\r\n" +
		"From: account@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Archived copy\r\n" +
		"\r\n" +
		"Sent body.\r\n")
	require.NoError(t, engine.AppendMessage(ctx, "Sent", raw))

	page, err := engine.GetEmails(ctx, "Sent", models.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	msg := page.Messages[0]
	assert.Equal(t, "Archived copy", msg.Envelope.Subject)
	assert.True(t, hasFlag(msg.Flags, "\\Seen"), "archived mail is stored read")
}
