package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates lookup indexes plus the partial unique index that
// forbids two active appointments starting at the same minute.
func (r *MongoAppointmentRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	activeStart := mongo.IndexModel{
		Keys: bson.D{
			{Key: "company_id", Value: 1},
			{Key: "professional_id", Value: 1},
			{Key: "date", Value: 1},
			{Key: "start_minute", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetName("unique_active_start").
			SetPartialFilterExpression(bson.M{"active": true}),
	}

	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "client_id", Value: 1}, {Key: "date", Value: 1}}},
		activeStart,
	}
	if _, err := r.appointmentColl.Indexes().CreateMany(ctx, idx); err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}
	return nil
}
