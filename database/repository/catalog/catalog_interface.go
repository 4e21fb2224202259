package catalogRepo

import (
	"context"

	"agendabot/models"
)

// CatalogRepository reads a tenant's services and professionals. Every method
// is scoped to companyID except the by-id lookups, which return the record
// regardless of tenant so callers can tell a foreign id from a missing one.
type CatalogRepository interface {
	GetServiceByID(ctx context.Context, id string) (*models.Service, error)
	GetProfessionalByID(ctx context.Context, id string) (*models.Professional, error)

	FindServicesByName(ctx context.Context, companyID, name string) ([]models.Service, error)
	FindProfessionalsByName(ctx context.Context, companyID, name string) ([]models.Professional, error)

	SearchServices(ctx context.Context, companyID string, terms []string) ([]models.Service, error)
	SearchProfessionals(ctx context.Context, companyID string, terms []string) ([]models.Professional, error)

	ListServices(ctx context.Context, companyID string) ([]models.Service, error)
	ListProfessionals(ctx context.Context, companyID string) ([]models.Professional, error)
}
