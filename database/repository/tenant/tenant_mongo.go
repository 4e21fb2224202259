package tenantRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agendabot/models"
	"agendabot/utils/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTenantRepo implements TenantRepository using MongoDB.
type MongoTenantRepo struct {
	coll *mongo.Collection
}

func NewMongoTenantRepo(db *mongo.Database) *MongoTenantRepo {
	return &MongoTenantRepo{coll: db.Collection("tenants")}
}

func (r *MongoTenantRepo) GetTenant(ctx context.Context, companyID string) (*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var tenant models.Tenant
	if err := r.coll.FindOne(ctx, bson.M{"id": companyID}).Decode(&tenant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("tenant %s not found", companyID)
		}
		return nil, fmt.Errorf("error fetching tenant %s: %w", companyID, err)
	}
	return &tenant, nil
}
