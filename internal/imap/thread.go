package imap

import (
	"fmt"

	"github.com/emersion/go-imap"
	sortthread "github.com/emersion/go-imap-sortthread"
	"github.com/emersion/go-imap/client"
	"github.com/movecrm/mailengine/internal/models"
)

// fetchThreads runs the THREAD command (REFERENCES algorithm) against the
// already-selected mailbox and returns the conversation trees keyed by UID.
func fetchThreads(c *client.Client) ([]*models.ThreadNode, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	threadClient := sortthread.NewThreadClient(c)

	threads, err := threadClient.UidThread(sortthread.References, imap.NewSearchCriteria())
	if err != nil {
		return nil, fmt.Errorf("THREAD command returned error: %w", err)
	}

	nodes := make([]*models.ThreadNode, 0, len(threads))
	for _, thread := range threads {
		if node := toThreadNode(thread); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

func toThreadNode(thread *sortthread.Thread) *models.ThreadNode {
	if thread == nil {
		return nil
	}

	node := &models.ThreadNode{UID: models.UID(thread.Id)}
	for _, child := range thread.Children {
		if childNode := toThreadNode(child); childNode != nil {
			node.Children = append(node.Children, childNode)
		}
	}
	return node
}
