package clientRepo

import (
	"context"

	"agendabot/models"
)

// ClientRepository stores a tenant's end customers keyed by their chat id.
type ClientRepository interface {
	GetByExternalID(ctx context.Context, companyID, externalID string) (*models.Client, error)
	// GetOrCreate returns the client for externalID, creating it with name if
	// absent. An existing client keeps its stored name.
	GetOrCreate(ctx context.Context, companyID, externalID, name string) (*models.Client, error)
	UpdateName(ctx context.Context, companyID, clientID, name string) error
}
