package conversationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agendabot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoTranscriptRepo implements TranscriptRepository using MongoDB.
type MongoTranscriptRepo struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewMongoTranscriptRepo(db *mongo.Database, logger *zap.Logger) *MongoTranscriptRepo {
	return &MongoTranscriptRepo{coll: db.Collection("conversations"), logger: logger}
}

func (r *MongoTranscriptRepo) Load(ctx context.Context, companyID, clientID string, limit int) ([]models.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne()
	if limit > 0 {
		opts.SetProjection(bson.M{"turns": bson.M{"$slice": -limit}})
	}

	var doc conversationDoc
	err := r.coll.FindOne(ctx, bson.M{"company_id": companyID, "client_id": clientID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []models.Turn{}, nil
		}
		return nil, fmt.Errorf("failed to load conversation %s/%s: %w", companyID, clientID, err)
	}

	turns, dropped := decodeTurns(doc.Turns)
	if dropped > 0 {
		r.logger.Warn("dropped transcript turns with unknown role",
			zap.String("company_id", companyID),
			zap.String("client_id", clientID),
			zap.Int("dropped", dropped))
	}
	return turns, nil
}

func (r *MongoTranscriptRepo) Save(ctx context.Context, companyID, clientID string, turns []models.Turn) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stored := make([]storedTurn, 0, len(turns))
	for _, t := range turns {
		stored = append(stored, toStored(t))
	}
	doc := conversationDoc{
		CompanyID: companyID,
		ClientID:  clientID,
		Turns:     stored,
		UpdatedAt: time.Now().UTC(),
	}

	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"company_id": companyID, "client_id": clientID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation %s/%s: %w", companyID, clientID, err)
	}
	return nil
}
