package imap

import (
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/k3a/html2text"
	"github.com/movecrm/mailengine/internal/models"
)

// DecodeMessage parses a raw RFC 822 message into a normalized structure.
// This is the default decoder used by the fetcher.
func DecodeMessage(r io.Reader) (*models.ParsedMessage, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message body: %w", err)
	}

	parsed := &models.ParsedMessage{
		From:       headerAddresses(env, "From"),
		To:         headerAddresses(env, "To"),
		Cc:         headerAddresses(env, "Cc"),
		Bcc:        headerAddresses(env, "Bcc"),
		Subject:    env.GetHeader("Subject"),
		MessageID:  env.GetHeader("Message-Id"),
		InReplyTo:  env.GetHeader("In-Reply-To"),
		References: env.GetHeader("References"),
		Text:       env.Text,
		HTML:       env.HTML,
	}

	if date, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
		parsed.Date = date
	}

	// Plain-text fallback for HTML-only messages.
	if parsed.Text == "" && parsed.HTML != "" {
		parsed.Text = html2text.HTML2Text(parsed.HTML)
	}

	for _, part := range env.Attachments {
		parsed.Attachments = append(parsed.Attachments, partToAttachment(part, false))
	}
	for _, part := range env.Inlines {
		if part.FileName == "" && part.ContentID == "" {
			continue
		}
		parsed.Attachments = append(parsed.Attachments, partToAttachment(part, true))
	}

	return parsed, nil
}

func partToAttachment(part *enmime.Part, inline bool) models.Attachment {
	att := models.Attachment{
		Filename:    part.FileName,
		ContentType: part.ContentType,
		Size:        int64(len(part.Content)),
		ContentID:   part.ContentID,
		Related:     inline,
		Content:     part.Content,
	}
	if att.ContentID != "" {
		att.Related = true
	}
	return att
}

func headerAddresses(env *enmime.Envelope, key string) []string {
	addresses, err := env.AddressList(key)
	if err != nil {
		return nil
	}

	result := make([]string, 0, len(addresses))
	for _, address := range addresses {
		result = append(result, address.String())
	}
	return result
}

// envelopeFallback builds a minimal parsed structure from the server-side
// envelope. Used when MIME decoding fails so the message still carries its
// header-level data instead of aborting the batch.
func envelopeFallback(envelope *imap.Envelope) *models.ParsedMessage {
	if envelope == nil {
		return nil
	}

	return &models.ParsedMessage{
		From:       formatAddressList(envelope.From),
		To:         formatAddressList(envelope.To),
		Cc:         formatAddressList(envelope.Cc),
		Bcc:        formatAddressList(envelope.Bcc),
		Subject:    envelope.Subject,
		Date:       envelope.Date,
		MessageID:  envelope.MessageId,
		InReplyTo:  envelope.InReplyTo,
		References: "",
	}
}

// formatAddress formats an IMAP address to a string.
func formatAddress(address *imap.Address) string {
	if address == nil {
		return ""
	}

	if address.MailboxName == "" && address.HostName == "" {
		return ""
	}

	if address.PersonalName != "" {
		return fmt.Sprintf("%s <%s@%s>", address.PersonalName, address.MailboxName, address.HostName)
	}

	return fmt.Sprintf("%s@%s", address.MailboxName, address.HostName)
}

// formatAddressList formats a list of IMAP addresses.
func formatAddressList(addresses []*imap.Address) []string {
	result := make([]string, 0, len(addresses))
	for _, address := range addresses {
		formatted := formatAddress(address)
		if formatted != "" {
			result = append(result, formatted)
		}
	}
	return result
}

// hasFlag reports whether the flag set contains the given flag.
func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}
