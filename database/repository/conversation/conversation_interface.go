package conversationRepo

import (
	"context"

	"agendabot/models"
)

// TranscriptRepository persists one bounded transcript per (company, client).
type TranscriptRepository interface {
	// Load returns at most the last limit turns, oldest first. A missing
	// conversation yields an empty transcript.
	Load(ctx context.Context, companyID, clientID string, limit int) ([]models.Turn, error)
	// Save replaces the stored window with turns. Repeating the same Save is
	// a no-op.
	Save(ctx context.Context, companyID, clientID string, turns []models.Turn) error
}
