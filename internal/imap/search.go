package imap

import (
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/movecrm/mailengine/internal/models"
)

// buildListCriteria builds the search criteria for a message listing.
// An empty query matches all messages; free text expands to a logical OR
// over the subject, sender and full-text predicates.
func buildListCriteria(search string) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	if search == "" {
		return criteria
	}

	subject := imap.NewSearchCriteria()
	subject.Header.Add("Subject", search)

	from := imap.NewSearchCriteria()
	from.Header.Add("From", search)

	text := imap.NewSearchCriteria()
	text.Text = []string{search}

	inner := imap.NewSearchCriteria()
	inner.Or = [][2]*imap.SearchCriteria{{from, text}}

	criteria.Or = [][2]*imap.SearchCriteria{{subject, inner}}
	return criteria
}

// buildSearchCriteria maps an explicit search query to protocol criteria.
func buildSearchCriteria(q models.SearchQuery) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()

	if q.Text != "" {
		criteria.Text = []string{q.Text}
	}
	if q.From != "" {
		criteria.Header.Add("From", q.From)
	}
	if q.To != "" {
		criteria.Header.Add("To", q.To)
	}
	if q.Subject != "" {
		criteria.Header.Add("Subject", q.Subject)
	}
	if q.Unseen {
		criteria.WithoutFlags = append(criteria.WithoutFlags, imap.SeenFlag)
	}
	if !q.Since.IsZero() {
		criteria.Since = q.Since
	}
	if !q.Before.IsZero() {
		criteria.Before = q.Before
	}

	return criteria
}

// searchMailbox runs the search against the already-selected mailbox and
// returns sequence numbers in ascending server order. The numbers are only
// valid for this session and must be consumed before the next select.
func searchMailbox(c *client.Client, criteria *imap.SearchCriteria) ([]models.SeqNum, error) {
	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result := make([]models.SeqNum, len(seqNums))
	for i, n := range seqNums {
		result[i] = models.SeqNum(n)
	}
	return result, nil
}

// pageWindow slices one page out of the full search result. The protocol's
// native search has no descending mode, so for descending order the entire
// result is reversed before slicing; windowing "most recent N" any other way
// would need a second round trip. A page past the end yields an empty window.
func pageWindow(results []models.SeqNum, page, limit int, descending bool) []models.SeqNum {
	ordered := results
	if descending {
		ordered = make([]models.SeqNum, len(results))
		for i, n := range results {
			ordered[len(results)-1-i] = n
		}
	}

	start := (page - 1) * limit
	if start < 0 || start >= len(ordered) {
		return nil
	}

	end := start + limit
	if end > len(ordered) {
		end = len(ordered)
	}

	return ordered[start:end]
}
