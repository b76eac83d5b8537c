package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings for both the read-side (IMAP) and send-side
// (SMTP) endpoints. Credentials are read once at startup and are read-only
// afterwards.
type Config struct {
	Environment string

	IMAPHost     string
	IMAPPort     string
	IMAPUsername string
	IMAPPassword string
	IMAPUseTLS   bool

	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SMTPUseStartTLS bool

	// FromAddress is the single account address all outgoing mail is sent from.
	FromAddress string

	// TLSSkipVerify disables certificate validation on both endpoints.
	TLSSkipVerify bool

	DialTimeout    time.Duration
	CommandTimeout time.Duration

	// Well-known folder aliases.
	InboxFolder  string
	SentFolder   string
	DraftsFolder string
	TrashFolder  string
	SpamFolder   string

	Port string
}

func NewConfig() (*Config, error) {
	env := os.Getenv("MAILENGINE_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	config := &Config{
		Environment:     env,
		IMAPHost:        os.Getenv("MAILENGINE_IMAP_HOST"),
		IMAPPort:        getEnvOrDefault("MAILENGINE_IMAP_PORT", "993"),
		IMAPUsername:    os.Getenv("MAILENGINE_IMAP_USER"),
		IMAPPassword:    os.Getenv("MAILENGINE_IMAP_PASSWORD"),
		IMAPUseTLS:      getEnvBool("MAILENGINE_IMAP_TLS", true),
		SMTPHost:        os.Getenv("MAILENGINE_SMTP_HOST"),
		SMTPPort:        getEnvOrDefault("MAILENGINE_SMTP_PORT", "587"),
		SMTPUsername:    os.Getenv("MAILENGINE_SMTP_USER"),
		SMTPPassword:    os.Getenv("MAILENGINE_SMTP_PASSWORD"),
		SMTPUseStartTLS: getEnvBool("MAILENGINE_SMTP_STARTTLS", true),
		FromAddress:     os.Getenv("MAILENGINE_FROM_ADDRESS"),
		TLSSkipVerify:   getEnvBool("MAILENGINE_TLS_SKIP_VERIFY", false),
		DialTimeout:     getEnvDuration("MAILENGINE_DIAL_TIMEOUT", 5*time.Second),
		CommandTimeout:  getEnvDuration("MAILENGINE_COMMAND_TIMEOUT", 30*time.Second),
		InboxFolder:     getEnvOrDefault("MAILENGINE_FOLDER_INBOX", "INBOX"),
		SentFolder:      getEnvOrDefault("MAILENGINE_FOLDER_SENT", "Sent"),
		DraftsFolder:    getEnvOrDefault("MAILENGINE_FOLDER_DRAFTS", "Drafts"),
		TrashFolder:     getEnvOrDefault("MAILENGINE_FOLDER_TRASH", "Trash"),
		SpamFolder:      getEnvOrDefault("MAILENGINE_FOLDER_SPAM", "Spam"),
		Port:            getEnvOrDefault("PORT", "8080"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.IMAPHost == "" {
		return fmt.Errorf("MAILENGINE_IMAP_HOST is required")
	}

	if c.IMAPUsername == "" || c.IMAPPassword == "" {
		return fmt.Errorf("MAILENGINE_IMAP_USER and MAILENGINE_IMAP_PASSWORD are required")
	}

	if c.SMTPHost == "" {
		return fmt.Errorf("MAILENGINE_SMTP_HOST is required")
	}

	if c.FromAddress == "" {
		return fmt.Errorf("MAILENGINE_FROM_ADDRESS is required")
	}

	return nil
}

// IMAPAddr returns the host:port address of the IMAP endpoint.
func (c *Config) IMAPAddr() string {
	return c.IMAPHost + ":" + c.IMAPPort
}

// SMTPAddr returns the host:port address of the SMTP endpoint.
func (c *Config) SMTPAddr() string {
	return c.SMTPHost + ":" + c.SMTPPort
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
