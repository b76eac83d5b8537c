package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/movecrm/mailengine/internal/imap"
	"github.com/movecrm/mailengine/internal/models"
	"github.com/movecrm/mailengine/internal/smtp"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: failed to encode response: %v", err)
	}
}

// WriteError maps engine errors to HTTP status codes. The engine never
// terminates the process; every failure surfaces as a rejected request.
func WriteError(w http.ResponseWriter, err error) {
	var connErr *imap.ConnectionError
	var mboxErr *imap.MailboxError
	var sendErr *smtp.SendError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &connErr):
		status = http.StatusBadGateway
	case errors.As(err, &mboxErr):
		status = http.StatusNotFound
	case errors.Is(err, imap.ErrMessageNotFound):
		status = http.StatusNotFound
	case errors.As(err, &sendErr):
		status = http.StatusBadGateway
	}

	log.Printf("API: request failed: %v", err)
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// ParsePaginationParams parses page and limit from query parameters.
// Returns default values (page=1, limit=defaultLimit) if parameters are
// missing or invalid.
func ParsePaginationParams(r *http.Request, defaultLimit int) (page, limit int) {
	page = 1
	limit = defaultLimit

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 0 {
			page = parsed
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	return page, limit
}

// ParseUID parses the uid query parameter. Only durable UIDs cross the API
// boundary; session-relative sequence numbers never do.
func ParseUID(r *http.Request) (models.UID, bool) {
	raw := r.URL.Query().Get("uid")
	if raw == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return models.UID(parsed), true
}
