package imap

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/google/uuid"
	"github.com/movecrm/mailengine/internal/models"
	"golang.org/x/sync/errgroup"
)

// DecodeFunc turns a raw message body into a normalized structure. Decoders
// run concurrently, one per message in a fetch batch.
type DecodeFunc func(r io.Reader) (*models.ParsedMessage, error)

// Fetcher streams raw bodies for a page of messages, decodes MIME
// concurrently and merges the result with the per-message attribute data.
type Fetcher struct {
	decode DecodeFunc
}

// NewFetcher creates a fetcher with the default MIME decoder.
func NewFetcher() *Fetcher {
	return &Fetcher{decode: DecodeMessage}
}

// NewFetcherWithDecoder creates a fetcher with a custom decoder.
func NewFetcherWithDecoder(decode DecodeFunc) *Fetcher {
	return &Fetcher{decode: decode}
}

// fetchItems covers raw body (peek, so flags stay untouched), envelope,
// structure and the out-of-band attributes.
func fetchItems(section *imap.BodySectionName) []imap.FetchItem {
	return []imap.FetchItem{
		imap.FetchEnvelope,
		imap.FetchFlags,
		imap.FetchUid,
		imap.FetchInternalDate,
		section.FetchItem(),
	}
}

// FetchPage fetches the given window of the already-selected mailbox and
// returns the messages sorted by date in the requested order.
//
// Each message's slot in the result is fixed up front; decode workers write
// into their slot and are joined through the errgroup before the page
// resolves. Resolving on the fetch's end-of-stream alone would silently drop
// messages whose decode settles late. A decode failure is logged and the
// message keeps its envelope fallback; a canceled context stops scheduling
// new decodes while already-started ones finish and are discarded with the
// batch.
func (f *Fetcher) FetchPage(ctx context.Context, c *client.Client, window []models.SeqNum, sortOrder string) ([]*models.Message, error) {
	if len(window) == 0 {
		return []*models.Message{}, nil
	}

	seqSet := new(imap.SeqSet)
	slots := make(map[models.SeqNum]int, len(window))
	for i, seq := range window {
		seqSet.AddNum(uint32(seq))
		slots[seq] = i
	}

	section := &imap.BodySectionName{Peek: true}

	ch := make(chan *imap.Message, len(window))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, fetchItems(section), ch)
	}()

	results := make([]*models.Message, len(window))
	g, gctx := errgroup.WithContext(ctx)

	for imapMsg := range ch {
		slot, ok := slots[models.SeqNum(imapMsg.SeqNum)]
		if !ok {
			continue
		}

		msg := mergeAttributes(imapMsg)
		results[slot] = msg

		body := imapMsg.GetBody(section)
		if body == nil {
			continue
		}
		if gctx.Err() != nil {
			// Canceled: stop scheduling new decodes.
			continue
		}

		g.Go(func() error {
			parsed, err := f.decode(body)
			if err != nil {
				log.Printf("Warning: %v", &DecodeError{Seq: msg.SeqNum, Err: err})
				return nil
			}
			msg.Envelope = parsed
			return nil
		})
	}

	fetchErr := <-done
	// Join barrier: the page must not resolve before every decode settled.
	joinErr := g.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", fetchErr)
	}
	if joinErr != nil {
		return nil, joinErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := make([]*models.Message, 0, len(results))
	for _, msg := range results {
		if msg != nil {
			messages = append(messages, msg)
		}
	}

	sortByDate(messages, sortOrder)
	return messages, nil
}

// FetchByUID fetches a single full message by its durable UID. Returns nil
// when the mailbox has no such message.
func (f *Fetcher) FetchByUID(ctx context.Context, c *client.Client, uid models.UID) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))

	section := &imap.BodySectionName{Peek: true}

	ch := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, fetchItems(section), ch)
	}()

	var imapMsg *imap.Message
	for m := range ch {
		imapMsg = m
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if imapMsg == nil {
		return nil, nil
	}

	msg := mergeAttributes(imapMsg)
	if body := imapMsg.GetBody(section); body != nil {
		parsed, err := f.decode(body)
		if err != nil {
			log.Printf("Warning: %v", &DecodeError{Seq: msg.SeqNum, Err: err})
		} else {
			msg.Envelope = parsed
		}
	}

	return msg, nil
}

// mergeAttributes builds the message accumulator from the attribute data:
// flags, UID, internal date and the server-side envelope as decode fallback.
// The internal date is authoritative; the parsed Date header is not.
func mergeAttributes(imapMsg *imap.Message) *models.Message {
	msg := &models.Message{
		ID:       uuid.NewString(),
		UID:      models.UID(imapMsg.Uid),
		SeqNum:   models.SeqNum(imapMsg.SeqNum),
		Flags:    append([]string(nil), imapMsg.Flags...),
		Date:     imapMsg.InternalDate,
		Envelope: envelopeFallback(imapMsg.Envelope),
	}

	if msg.Date.IsZero() && imapMsg.Envelope != nil {
		msg.Date = imapMsg.Envelope.Date
	}

	return msg
}

// sortByDate applies the deterministic secondary sort. Only "date" is
// supported as a key; ties keep the original fetch order (stable sort).
func sortByDate(messages []*models.Message, sortOrder string) {
	descending := sortOrder != "asc"

	sort.SliceStable(messages, func(i, j int) bool {
		if descending {
			return messages[i].Date.After(messages[j].Date)
		}
		return messages[i].Date.Before(messages[j].Date)
	})
}
