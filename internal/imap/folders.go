package imap

import (
	"fmt"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/movecrm/mailengine/internal/models"
)

// folderNode is one node of the server's nested mailbox hierarchy. children
// preserves LIST arrival order so flattening is deterministic.
type folderNode struct {
	delimiter  string
	attributes []string
	children   map[string]*folderNode
	order      []string
}

func newFolderNode(delimiter string, attributes []string) *folderNode {
	return &folderNode{
		delimiter:  delimiter,
		attributes: attributes,
		children:   make(map[string]*folderNode),
	}
}

func (n *folderNode) child(name string) (*folderNode, bool) {
	c, ok := n.children[name]
	return c, ok
}

func (n *folderNode) addChild(name string, child *folderNode) {
	if _, exists := n.children[name]; !exists {
		n.order = append(n.order, name)
	}
	n.children[name] = child
}

// ListFolders lists all mailboxes and returns them as a flat, annotated list.
func ListFolders(c *client.Client) ([]*models.Folder, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)

	go func() {
		done <- c.List("", "*", mailboxes)
	}()

	var infos []*imap.MailboxInfo
	for m := range mailboxes {
		infos = append(infos, m)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	return FlattenFolders(BuildFolderTree(infos)), nil
}

// BuildFolderTree turns the flat LIST response into a nested name -> node
// map. Parents the server never listed (placeholder containers) are
// synthesized as non-selectable nodes.
func BuildFolderTree(infos []*imap.MailboxInfo) *folderNode {
	root := newFolderNode("", nil)

	for _, info := range infos {
		parts := []string{info.Name}
		if info.Delimiter != "" {
			parts = strings.Split(info.Name, info.Delimiter)
		}

		node := root
		for i, part := range parts {
			child, ok := node.child(part)
			if !ok {
				child = newFolderNode(info.Delimiter, []string{imap.NoSelectAttr})
				node.addChild(part, child)
			}
			if i == len(parts)-1 {
				// The listed mailbox itself: attributes are authoritative.
				child.delimiter = info.Delimiter
				child.attributes = info.Attributes
			}
			node = child
		}
	}

	return root
}

// FlattenFolders walks the tree depth-first in pre-order, emitting each node
// before its children. The full path joins the parent path and name with the
// node's delimiter; level is the recursion depth.
func FlattenFolders(root *folderNode) []*models.Folder {
	return flattenFolders(root, "", 0)
}

func flattenFolders(node *folderNode, parentPath string, level int) []*models.Folder {
	folders := make([]*models.Folder, 0, len(node.order))

	for _, name := range node.order {
		child := node.children[name]

		fullPath := name
		if parentPath != "" {
			fullPath = parentPath + child.delimiter + name
		}

		folders = append(folders, &models.Folder{
			Name:        name,
			Path:        fullPath,
			Delimiter:   child.delimiter,
			Attributes:  child.attributes,
			Level:       level,
			HasChildren: len(child.children) > 0,
			SpecialUse:  inferSpecialUse(child.attributes, name),
		})

		folders = append(folders, flattenFolders(child, fullPath, level+1)...)
	}

	return folders
}

// inferSpecialUse derives the conventional role of a mailbox. Protocol
// attribute tokens win over name heuristics: a folder named "Stuff" carrying
// \Drafts is still the drafts folder, and naming only counts when the server
// advertised nothing.
func inferSpecialUse(attributes []string, name string) models.SpecialUse {
	for _, attr := range attributes {
		switch attr {
		case imap.SentAttr:
			return models.SpecialUseSent
		case imap.DraftsAttr:
			return models.SpecialUseDrafts
		case imap.TrashAttr:
			return models.SpecialUseTrash
		case imap.JunkAttr:
			return models.SpecialUseSpam
		case `\Inbox`:
			return models.SpecialUseInbox
		}
	}

	lowerName := strings.ToLower(name)
	switch {
	case strings.Contains(lowerName, "sent"):
		return models.SpecialUseSent
	case strings.Contains(lowerName, "draft"):
		return models.SpecialUseDrafts
	case strings.Contains(lowerName, "trash"), strings.Contains(lowerName, "deleted"):
		return models.SpecialUseTrash
	case strings.Contains(lowerName, "spam"), strings.Contains(lowerName, "junk"):
		return models.SpecialUseSpam
	case lowerName == "inbox":
		return models.SpecialUseInbox
	}

	return models.SpecialUseNone
}
