package api

import (
	"encoding/json"
	"net/http"

	"github.com/movecrm/mailengine/internal/config"
	"github.com/movecrm/mailengine/internal/imap"
	"github.com/movecrm/mailengine/internal/models"
	"github.com/movecrm/mailengine/internal/smtp"
)

// EmailHandler exposes the mail engine to the HTTP layer. Routing,
// authentication and request validation belong to the surrounding CRM; the
// handlers here stay deliberately thin.
type EmailHandler struct {
	cfg    *config.Config
	engine imap.MailEngine
	sender *smtp.Sender
}

// NewEmailHandler creates a new email handler.
func NewEmailHandler(cfg *config.Config, engine imap.MailEngine, sender *smtp.Sender) *EmailHandler {
	return &EmailHandler{cfg: cfg, engine: engine, sender: sender}
}

// folderParam returns the folder query parameter, defaulting to the inbox.
func (h *EmailHandler) folderParam(r *http.Request) string {
	if folder := r.URL.Query().Get("folder"); folder != "" {
		return folder
	}
	return h.cfg.InboxFolder
}

// GetFolders handles GET /api/v1/folders.
func (h *EmailHandler) GetFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.engine.GetFolders(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, folders)
}

// GetEmails handles GET /api/v1/emails.
func (h *EmailHandler) GetEmails(w http.ResponseWriter, r *http.Request) {
	page, limit := ParsePaginationParams(r, 50)
	opts := models.ListOptions{
		Page:      page,
		Limit:     limit,
		Search:    r.URL.Query().Get("search"),
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}

	result, err := h.engine.GetEmails(r.Context(), h.folderParam(r), opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// GetEmail handles GET /api/v1/email.
func (h *EmailHandler) GetEmail(w http.ResponseWriter, r *http.Request) {
	uid, ok := ParseUID(r)
	if !ok {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return
	}

	msg, err := h.engine.GetEmail(r.Context(), h.folderParam(r), uid)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, msg)
}

type flagRequest struct {
	Folder  string `json:"folder"`
	UID     uint32 `json:"uid"`
	Starred bool   `json:"starred"`
}

func (h *EmailHandler) decodeFlagRequest(w http.ResponseWriter, r *http.Request) (*flagRequest, bool) {
	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if req.Folder == "" {
		req.Folder = h.cfg.InboxFolder
	}
	if req.UID == 0 {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// MarkAsRead handles POST /api/v1/emails/read.
func (h *EmailHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFlagRequest(w, r)
	if !ok {
		return
	}
	if err := h.engine.MarkAsRead(r.Context(), req.Folder, models.UID(req.UID)); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// MarkAsUnread handles POST /api/v1/emails/unread.
func (h *EmailHandler) MarkAsUnread(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFlagRequest(w, r)
	if !ok {
		return
	}
	if err := h.engine.MarkAsUnread(r.Context(), req.Folder, models.UID(req.UID)); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StarEmail handles POST /api/v1/emails/star.
func (h *EmailHandler) StarEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFlagRequest(w, r)
	if !ok {
		return
	}

	var err error
	if req.Starred {
		err = h.engine.FlagEmail(r.Context(), req.Folder, models.UID(req.UID), `\Flagged`)
	} else {
		err = h.engine.UnflagEmail(r.Context(), req.Folder, models.UID(req.UID), `\Flagged`)
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type moveRequest struct {
	SourceFolder string `json:"source_folder"`
	TargetFolder string `json:"target_folder"`
	UID          uint32 `json:"uid"`
}

// MoveEmail handles POST /api/v1/emails/move.
func (h *EmailHandler) MoveEmail(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SourceFolder == "" || req.TargetFolder == "" || req.UID == 0 {
		http.Error(w, "source_folder, target_folder and uid are required", http.StatusBadRequest)
		return
	}

	if err := h.engine.MoveEmail(r.Context(), req.SourceFolder, req.TargetFolder, models.UID(req.UID)); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteEmail handles DELETE /api/v1/email.
func (h *EmailHandler) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	uid, ok := ParseUID(r)
	if !ok {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.DeleteEmail(r.Context(), h.folderParam(r), uid); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SearchEmails handles GET /api/v1/emails/search.
func (h *EmailHandler) SearchEmails(w http.ResponseWriter, r *http.Request) {
	query := models.SearchQuery{
		Text:    r.URL.Query().Get("q"),
		From:    r.URL.Query().Get("from"),
		To:      r.URL.Query().Get("to"),
		Subject: r.URL.Query().Get("subject"),
	}

	uids, err := h.engine.SearchEmails(r.Context(), h.folderParam(r), query)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, uids)
}

// GetThread handles GET /api/v1/emails/thread.
func (h *EmailHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	threads, err := h.engine.GetThread(r.Context(), h.folderParam(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, threads)
}

// SendEmail handles POST /api/v1/emails/send.
func (h *EmailHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var msg models.OutgoingMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.sender.Send(r.Context(), &msg)
	if err != nil {
		if result != nil {
			WriteJSON(w, http.StatusBadGateway, result)
			return
		}
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// SaveDraft handles POST /api/v1/emails/draft.
func (h *EmailHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var msg models.OutgoingMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	WriteJSON(w, http.StatusOK, h.sender.SaveDraft(&msg))
}
