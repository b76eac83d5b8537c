package smtp

import (
	"time"

	"github.com/google/uuid"
	"github.com/movecrm/mailengine/internal/models"
)

// SaveDraft records a draft in memory and returns it. The draft is NOT
// persisted to the server-side Drafts folder; Persisted is always false so
// callers can tell.
//
// TODO: persist drafts via APPEND to the configured Drafts folder and return
// the resulting UID.
func (s *Sender) SaveDraft(msg *models.OutgoingMessage) *models.Draft {
	return &models.Draft{
		ID:        uuid.NewString(),
		Message:   *msg,
		SavedAt:   time.Now(),
		Persisted: false,
	}
}
