package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/movecrm/mailengine/internal/api"
	"github.com/movecrm/mailengine/internal/config"
	"github.com/movecrm/mailengine/internal/imap"
	"github.com/movecrm/mailengine/internal/smtp"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	engine := imap.NewEngine(cfg)
	defer engine.Close()

	sender := smtp.NewSender(cfg, engine)

	server := NewServer(cfg, engine, sender)

	address := ":" + cfg.Port
	log.Printf("Mail engine starting on %s (environment: %s)", address, cfg.Environment)

	if err := http.ListenAndServe(address, server); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// NewServer creates and returns the HTTP handler for the mail engine API.
func NewServer(cfg *config.Config, engine imap.MailEngine, sender *smtp.Sender) http.Handler {
	emailHandler := api.NewEmailHandler(cfg, engine, sender)

	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)

	mux.HandleFunc("/api/v1/folders", emailHandler.GetFolders)
	mux.HandleFunc("/api/v1/emails", emailHandler.GetEmails)
	mux.HandleFunc("/api/v1/emails/search", emailHandler.SearchEmails)
	mux.HandleFunc("/api/v1/emails/thread", emailHandler.GetThread)
	mux.HandleFunc("/api/v1/emails/read", emailHandler.MarkAsRead)
	mux.HandleFunc("/api/v1/emails/unread", emailHandler.MarkAsUnread)
	mux.HandleFunc("/api/v1/emails/star", emailHandler.StarEmail)
	mux.HandleFunc("/api/v1/emails/move", emailHandler.MoveEmail)
	mux.HandleFunc("/api/v1/emails/send", emailHandler.SendEmail)
	mux.HandleFunc("/api/v1/emails/draft", emailHandler.SaveDraft)
	mux.HandleFunc("/api/v1/email", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			emailHandler.GetEmail(w, r)
		case http.MethodDelete:
			emailHandler.DeleteEmail(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Mail engine API is running")
}
