package models

import "time"

// UID is the server-assigned durable identifier of a message within a mailbox.
// It stays valid across sessions until the mailbox's UIDVALIDITY resets, and is
// the only key that may be used for later mutation calls.
type UID uint32

// SeqNum is a session-relative message sequence number. It is only meaningful
// for the search/fetch call that produced it and must never be reused across
// separate calls. Keeping it a distinct type from UID prevents mixing the two.
type SeqNum uint32

// SpecialUse identifies the conventional role of a mailbox.
type SpecialUse string

const (
	SpecialUseNone   SpecialUse = ""
	SpecialUseInbox  SpecialUse = "inbox"
	SpecialUseSent   SpecialUse = "sent"
	SpecialUseDrafts SpecialUse = "drafts"
	SpecialUseTrash  SpecialUse = "trash"
	SpecialUseSpam   SpecialUse = "spam"
)

// Folder is a flattened mailbox entry.
type Folder struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Delimiter   string     `json:"delimiter"`
	Attributes  []string   `json:"attributes"`
	Level       int        `json:"level"`
	HasChildren bool       `json:"has_children"`
	SpecialUse  SpecialUse `json:"special_use,omitempty"`
}

// Message is a single mail message as returned by list and single-message
// fetches. Date is the server's internal date, not the Date header.
type Message struct {
	ID       string         `json:"id"`
	UID      UID            `json:"uid"`
	SeqNum   SeqNum         `json:"seq_num"`
	Flags    []string       `json:"flags"`
	Date     time.Time      `json:"date"`
	Envelope *ParsedMessage `json:"envelope,omitempty"`
}

// ParsedMessage is the normalized result of decoding a raw message body.
// When MIME decoding fails, the fetcher falls back to the server-side
// envelope, so only the header-level fields are guaranteed to be set.
type ParsedMessage struct {
	From        []string     `json:"from"`
	To          []string     `json:"to"`
	Cc          []string     `json:"cc,omitempty"`
	Bcc         []string     `json:"bcc,omitempty"`
	Subject     string       `json:"subject"`
	Date        time.Time    `json:"date"`
	MessageID   string       `json:"message_id"`
	InReplyTo   string       `json:"in_reply_to,omitempty"`
	References  string       `json:"references,omitempty"`
	Text        string       `json:"text,omitempty"`
	HTML        string       `json:"html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment describes one attachment of a received message. Content is
// retained so forwards can carry the original attachments unmodified.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ContentID   string `json:"content_id,omitempty"`
	Related     bool   `json:"related"`
	Content     []byte `json:"-"`
}

// OutgoingAttachment is an attachment of a message to be sent.
type OutgoingAttachment struct {
	Filename    string `json:"filename"`
	Content     []byte `json:"content"`
	ContentType string `json:"content_type"`
}

// OutgoingMessage is a message to be composed and delivered. From is not a
// field: the sender always uses the single configured account address.
type OutgoingMessage struct {
	To          []string             `json:"to"`
	Cc          []string             `json:"cc,omitempty"`
	Bcc         []string             `json:"bcc,omitempty"`
	Subject     string               `json:"subject"`
	Text        string               `json:"text,omitempty"`
	HTML        string               `json:"html,omitempty"`
	Attachments []OutgoingAttachment `json:"attachments,omitempty"`
	ReplyTo     string               `json:"reply_to,omitempty"`
	InReplyTo   string               `json:"in_reply_to,omitempty"`
	References  string               `json:"references,omitempty"`
	Priority    string               `json:"priority,omitempty"`
}

// SendResult reports the outcome of a delivery attempt.
type SendResult struct {
	Success     bool     `json:"success"`
	MessageID   string   `json:"message_id"`
	Accepted    []string `json:"accepted"`
	Rejected    []string `json:"rejected"`
	RawResponse string   `json:"raw_response,omitempty"`
}

// Draft is an in-memory draft record. Persisted is always false for now:
// drafts are not stored in the server-side Drafts folder.
type Draft struct {
	ID        string          `json:"id"`
	Message   OutgoingMessage `json:"message"`
	SavedAt   time.Time       `json:"saved_at"`
	Persisted bool            `json:"persisted"`
}

// ListOptions controls pagination, filtering and ordering of a message list.
type ListOptions struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Search    string `json:"search,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`    // only "date" is supported
	SortOrder string `json:"sort_order,omitempty"` // "asc" or "desc" (default)
}

// EmailPage is one page of a message listing. Total is the full search hit
// count, independent of page and limit.
type EmailPage struct {
	Messages []*Message `json:"messages"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

// SearchQuery describes explicit search criteria for the search endpoint.
type SearchQuery struct {
	Text    string    `json:"text,omitempty"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Subject string    `json:"subject,omitempty"`
	Unseen  bool      `json:"unseen,omitempty"`
	Since   time.Time `json:"since,omitempty"`
	Before  time.Time `json:"before,omitempty"`
}

// ThreadNode is one message in a conversation tree as reported by the
// server's THREAD extension.
type ThreadNode struct {
	UID      UID           `json:"uid"`
	Children []*ThreadNode `json:"children,omitempty"`
}
