package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MAILENGINE_ENV", "test")
	t.Setenv("MAILENGINE_IMAP_HOST", "imap.example.com")
	t.Setenv("MAILENGINE_IMAP_USER", "account@example.com")
	t.Setenv("MAILENGINE_IMAP_PASSWORD", "secret")
	t.Setenv("MAILENGINE_SMTP_HOST", "smtp.example.com")
	t.Setenv("MAILENGINE_FROM_ADDRESS", "account@example.com")
}

func TestNewConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := NewConfig()
		require.NoError(t, err)

		assert.Equal(t, "993", cfg.IMAPPort)
		assert.Equal(t, "587", cfg.SMTPPort)
		assert.True(t, cfg.IMAPUseTLS)
		assert.True(t, cfg.SMTPUseStartTLS)
		assert.False(t, cfg.TLSSkipVerify)
		assert.Equal(t, 5*time.Second, cfg.DialTimeout)
		assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
		assert.Equal(t, "INBOX", cfg.InboxFolder)
		assert.Equal(t, "Sent", cfg.SentFolder)
		assert.Equal(t, "Drafts", cfg.DraftsFolder)
		assert.Equal(t, "Trash", cfg.TrashFolder)
		assert.Equal(t, "Spam", cfg.SpamFolder)
		assert.Equal(t, "8080", cfg.Port)
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("MAILENGINE_IMAP_PORT", "1143")
		t.Setenv("MAILENGINE_IMAP_TLS", "false")
		t.Setenv("MAILENGINE_DIAL_TIMEOUT", "2s")
		t.Setenv("MAILENGINE_FOLDER_SENT", "Gesendet")

		cfg, err := NewConfig()
		require.NoError(t, err)

		assert.Equal(t, "1143", cfg.IMAPPort)
		assert.False(t, cfg.IMAPUseTLS)
		assert.Equal(t, 2*time.Second, cfg.DialTimeout)
		assert.Equal(t, "Gesendet", cfg.SentFolder)
	})

	t.Run("invalid overrides fall back to defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("MAILENGINE_IMAP_TLS", "not-a-bool")
		t.Setenv("MAILENGINE_COMMAND_TIMEOUT", "soon")

		cfg, err := NewConfig()
		require.NoError(t, err)

		assert.True(t, cfg.IMAPUseTLS)
		assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	})

	t.Run("rejects incomplete configuration", func(t *testing.T) {
		tests := []struct {
			name    string
			missing string
		}{
			{"imap host", "MAILENGINE_IMAP_HOST"},
			{"imap credentials", "MAILENGINE_IMAP_USER"},
			{"smtp host", "MAILENGINE_SMTP_HOST"},
			{"from address", "MAILENGINE_FROM_ADDRESS"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv(tt.missing, "")

				_, err := NewConfig()
				assert.Error(t, err)
			})
		}
	})
}

func TestAddrHelpers(t *testing.T) {
	cfg := &Config{
		IMAPHost: "imap.example.com",
		IMAPPort: "993",
		SMTPHost: "smtp.example.com",
		SMTPPort: "587",
	}

	assert.Equal(t, "imap.example.com:993", cfg.IMAPAddr())
	assert.Equal(t, "smtp.example.com:587", cfg.SMTPAddr())
}
