package testutil

import (
	"net"
	"testing"
	"time"

	"github.com/movecrm/mailengine/internal/config"
)

// NewTestConfig builds a config pointed at the given test servers. Either
// server may be nil when a test only exercises one side.
func NewTestConfig(t *testing.T, imapServer *TestIMAPServer, smtpServer *TestSMTPServer) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Environment:    "test",
		IMAPUseTLS:     false,
		IMAPUsername:   "username",
		IMAPPassword:   "password",
		FromAddress:    "account@example.com",
		DialTimeout:    5 * time.Second,
		CommandTimeout: 30 * time.Second,
		InboxFolder:    "INBOX",
		SentFolder:     "Sent",
		DraftsFolder:   "Drafts",
		TrashFolder:    "Trash",
		SpamFolder:     "Spam",
	}

	if imapServer != nil {
		host, port, err := net.SplitHostPort(imapServer.Address)
		if err != nil {
			t.Fatalf("Failed to split IMAP address: %v", err)
		}
		cfg.IMAPHost = host
		cfg.IMAPPort = port
	}

	if smtpServer != nil {
		cfg.SMTPHost = smtpServer.Host()
		cfg.SMTPPort = smtpServer.Port()
		cfg.SMTPUseStartTLS = false
	}

	return cfg
}
