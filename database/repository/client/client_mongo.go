package clientRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agendabot/models"
	"agendabot/utils/apperr"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClientRepo implements ClientRepository using MongoDB.
type MongoClientRepo struct {
	coll *mongo.Collection
}

func NewMongoClientRepo(db *mongo.Database) *MongoClientRepo {
	return &MongoClientRepo{coll: db.Collection("clients")}
}

func (r *MongoClientRepo) GetByExternalID(ctx context.Context, companyID, externalID string) (*models.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var client models.Client
	err := r.coll.FindOne(ctx, bson.M{"company_id": companyID, "external_id": externalID}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("client %s not found", externalID)
		}
		return nil, fmt.Errorf("error fetching client %s: %w", externalID, err)
	}
	return &client, nil
}

func (r *MongoClientRepo) GetOrCreate(ctx context.Context, companyID, externalID, name string) (*models.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"company_id": companyID, "external_id": externalID}
	update := bson.M{"$setOnInsert": models.Client{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		ExternalID: externalID,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var client models.Client
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&client)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost the upsert race; the winner's document is there now.
		err = r.coll.FindOne(ctx, filter).Decode(&client)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create client %s: %w", externalID, err)
	}
	return &client, nil
}

func (r *MongoClientRepo) UpdateName(ctx context.Context, companyID, clientID, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"company_id": companyID, "id": clientID},
		bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update client %s: %w", clientID, err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("client %s not found", clientID)
	}
	return nil
}
