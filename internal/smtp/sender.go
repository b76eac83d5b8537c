package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"github.com/jordan-wright/email"
	"github.com/movecrm/mailengine/internal/config"
	"github.com/movecrm/mailengine/internal/models"
)

// SendError wraps a transport delivery failure. Sent-folder archival failure
// is never promoted to a SendError; it only produces a warning.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("smtp: delivery failed: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Archiver appends a raw message copy to a folder on the read-side account.
// The IMAP engine implements this.
type Archiver interface {
	AppendMessage(ctx context.Context, folder string, raw []byte) error
}

// Sender composes and delivers outgoing mail. It uses its own SMTP transport,
// independent of the read-side session, so sends may proceed concurrently
// with any read-side operation.
type Sender struct {
	cfg      *config.Config
	archiver Archiver
}

// NewSender creates a sender. archiver may be nil to disable Sent archival.
func NewSender(cfg *config.Config, archiver Archiver) *Sender {
	return &Sender{cfg: cfg, archiver: archiver}
}

// Send composes and delivers the message, then appends a copy to the Sent
// folder as a best-effort side effect.
func (s *Sender) Send(ctx context.Context, msg *models.OutgoingMessage) (*models.SendResult, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	if msg.Text == "" && msg.HTML == "" {
		return nil, fmt.Errorf("email body is required")
	}

	e := email.NewEmail()
	// From is always the single configured account address.
	e.From = s.cfg.FromAddress
	e.To = msg.To
	e.Cc = msg.Cc
	e.Bcc = msg.Bcc
	e.Subject = msg.Subject
	if msg.Text != "" {
		e.Text = []byte(msg.Text)
	}
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}

	messageID := s.newMessageID()
	e.Headers.Set("Message-Id", messageID)
	setPriorityHeaders(e, msg.Priority)

	// Optional headers are only attached when present.
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}
	if msg.InReplyTo != "" {
		e.Headers.Set("In-Reply-To", msg.InReplyTo)
	}
	if msg.References != "" {
		e.Headers.Set("References", msg.References)
	}

	for _, att := range msg.Attachments {
		if _, err := e.Attach(bytes.NewReader(att.Content), att.Filename, att.ContentType); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", att.Filename, err)
		}
	}

	raw, err := e.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	recipients := allRecipients(msg)

	if err := s.deliver(e); err != nil {
		sendErr := &SendError{Err: err}
		return &models.SendResult{
			Success:     false,
			MessageID:   messageID,
			Rejected:    recipients,
			RawResponse: err.Error(),
		}, sendErr
	}

	result := &models.SendResult{
		Success:   true,
		MessageID: messageID,
		Accepted:  recipients,
		Rejected:  []string{},
	}

	s.archive(ctx, raw)

	return result, nil
}

// deliver hands the message to the SMTP endpoint.
func (s *Sender) deliver(e *email.Email) error {
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	if s.cfg.SMTPUseStartTLS {
		tlsConfig := &tls.Config{
			ServerName:         s.cfg.SMTPHost,
			InsecureSkipVerify: s.cfg.TLSSkipVerify,
		}
		return e.SendWithStartTLS(s.cfg.SMTPAddr(), auth, tlsConfig)
	}

	return e.Send(s.cfg.SMTPAddr(), auth)
}

// archive appends the sent copy to the Sent folder. Failure is a warning,
// never an error: the mail is already out.
func (s *Sender) archive(ctx context.Context, raw []byte) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.AppendMessage(ctx, s.cfg.SentFolder, raw); err != nil {
		log.Printf("Warning: failed to archive sent message: %v", err)
	}
}

// newMessageID synthesizes a globally unique Message-ID on the account's
// domain. Generated exactly once per send.
func (s *Sender) newMessageID() string {
	domain := s.cfg.FromAddress
	if at := strings.LastIndex(domain, "@"); at >= 0 {
		domain = domain[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// setPriorityHeaders maps the priority to the conventional headers. An
// unspecified priority is normal.
func setPriorityHeaders(e *email.Email, priority string) {
	switch strings.ToLower(priority) {
	case "high":
		e.Headers.Set("X-Priority", "1")
		e.Headers.Set("Importance", "high")
	case "low":
		e.Headers.Set("X-Priority", "5")
		e.Headers.Set("Importance", "low")
	default:
		e.Headers.Set("X-Priority", "3")
	}
}

func allRecipients(msg *models.OutgoingMessage) []string {
	recipients := make([]string, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	recipients = append(recipients, msg.To...)
	recipients = append(recipients, msg.Cc...)
	recipients = append(recipients, msg.Bcc...)
	return recipients
}

// Reply threads draft as a reply to original: In-Reply-To becomes the
// original message id and the references chain grows by it. The chain is
// never replaced.
func Reply(original *models.ParsedMessage, draft models.OutgoingMessage) models.OutgoingMessage {
	draft.InReplyTo = original.MessageID
	if original.References != "" {
		draft.References = original.References + " " + original.MessageID
	} else {
		draft.References = original.MessageID
	}
	return draft
}

// Forward prefixes the subject with "Fwd: " and carries the original
// attachment list forward unmodified.
func Forward(original *models.ParsedMessage, draft models.OutgoingMessage) models.OutgoingMessage {
	draft.Subject = "Fwd: " + original.Subject
	for _, att := range original.Attachments {
		draft.Attachments = append(draft.Attachments, models.OutgoingAttachment{
			Filename:    att.Filename,
			Content:     att.Content,
			ContentType: att.ContentType,
		})
	}
	return draft
}
