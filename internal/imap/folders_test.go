package imap

import (
	"testing"

	"github.com/emersion/go-imap"
	"github.com/movecrm/mailengine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func info(name, delimiter string, attributes ...string) *imap.MailboxInfo {
	return &imap.MailboxInfo{Name: name, Delimiter: delimiter, Attributes: attributes}
}

func TestFlattenFolders(t *testing.T) {
	t.Run("flattens nested hierarchy in pre-order", func(t *testing.T) {
		infos := []*imap.MailboxInfo{
			info("INBOX", "/"),
			info("Work", "/"),
			info("Work/Clients", "/"),
			info("Work/Clients/Acme", "/"),
			info("Archive", "/"),
		}

		folders := FlattenFolders(BuildFolderTree(infos))

		require.Len(t, folders, 5, "flattened list length must equal the node count")

		byPath := make(map[string]*models.Folder)
		order := make(map[string]int)
		for i, f := range folders {
			byPath[f.Path] = f
			order[f.Path] = i
		}

		assert.Equal(t, 0, byPath["INBOX"].Level)
		assert.Equal(t, 0, byPath["Work"].Level)
		assert.Equal(t, 1, byPath["Work/Clients"].Level)
		assert.Equal(t, 2, byPath["Work/Clients/Acme"].Level)
		assert.Equal(t, "Acme", byPath["Work/Clients/Acme"].Name)

		// Each node is emitted before its children.
		assert.Less(t, order["Work"], order["Work/Clients"])
		assert.Less(t, order["Work/Clients"], order["Work/Clients/Acme"])

		assert.True(t, byPath["Work"].HasChildren)
		assert.True(t, byPath["Work/Clients"].HasChildren)
		assert.False(t, byPath["Work/Clients/Acme"].HasChildren)
		assert.False(t, byPath["INBOX"].HasChildren)
	})

	t.Run("levels increase along every parent-child chain", func(t *testing.T) {
		infos := []*imap.MailboxInfo{
			info("a", "."),
			info("a.b", "."),
			info("a.b.c", "."),
			info("a.b.c.d", "."),
		}

		folders := FlattenFolders(BuildFolderTree(infos))
		require.Len(t, folders, 4)

		for i, f := range folders {
			assert.Equal(t, i, f.Level, "level must match recursion depth for %s", f.Path)
			assert.Less(t, f.Level, 4, "level must never exceed input depth")
		}
	})

	t.Run("synthesizes non-selectable placeholder parents", func(t *testing.T) {
		infos := []*imap.MailboxInfo{
			info("Parent/Child", "/"),
		}

		folders := FlattenFolders(BuildFolderTree(infos))
		require.Len(t, folders, 2)

		parent := folders[0]
		assert.Equal(t, "Parent", parent.Path)
		assert.Contains(t, parent.Attributes, imap.NoSelectAttr)
		// hasChildren marks container nodes, selectable or not.
		assert.True(t, parent.HasChildren)
		assert.False(t, folders[1].HasChildren)
	})

	t.Run("empty input yields empty list", func(t *testing.T) {
		folders := FlattenFolders(BuildFolderTree(nil))
		assert.Empty(t, folders)
	})
}

func TestInferSpecialUse(t *testing.T) {
	tests := []struct {
		name       string
		attributes []string
		folder     string
		expected   models.SpecialUse
	}{
		{"trash by name without attribute", nil, "Trash", models.SpecialUseTrash},
		{"drafts attribute wins over unrelated name", []string{imap.DraftsAttr}, "Stuff", models.SpecialUseDrafts},
		{"trash attribute wins over sent-looking name", []string{imap.TrashAttr}, "Sent-Old", models.SpecialUseTrash},
		{"sent attribute", []string{imap.SentAttr}, "Gesendet", models.SpecialUseSent},
		{"junk attribute", []string{imap.JunkAttr}, "Keep", models.SpecialUseSpam},
		{"sent by name substring", nil, "Sent Items", models.SpecialUseSent},
		{"drafts by name substring", nil, "My Drafts", models.SpecialUseDrafts},
		{"deleted counts as trash", nil, "Deleted Items", models.SpecialUseTrash},
		{"spam by name", nil, "Spamfilter", models.SpecialUseSpam},
		{"junk by name", nil, "Junk", models.SpecialUseSpam},
		{"inbox requires exact name", nil, "INBOX", models.SpecialUseInbox},
		{"inbox name is case-insensitive", nil, "Inbox", models.SpecialUseInbox},
		{"inbox substring does not match", nil, "Inbox2", models.SpecialUseNone},
		{"plain folder has no role", nil, "Projects", models.SpecialUseNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, inferSpecialUse(tt.attributes, tt.folder))
		})
	}
}
