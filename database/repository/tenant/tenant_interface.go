package tenantRepo

import (
	"context"

	"agendabot/models"
)

// TenantRepository reads tenant profiles.
type TenantRepository interface {
	GetTenant(ctx context.Context, companyID string) (*models.Tenant, error)
}
