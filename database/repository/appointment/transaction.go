package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"agendabot/models"
	"agendabot/utils/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// bookingLock is one document per (company, professional, date). Every
// booking transaction for that day writes to it first, so two concurrent
// transactions conflict on it and one of them is aborted by the server.
type bookingLock struct {
	ID             string    `bson:"_id"`
	CompanyID      string    `bson:"company_id"`
	ProfessionalID string    `bson:"professional_id"`
	Date           string    `bson:"date"`
	Version        int64     `bson:"version"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func lockKey(companyID, professionalID, date string) string {
	return companyID + ":" + professionalID + ":" + date
}

// InsertIfNoOverlap runs check-and-insert inside a transaction serialized on
// the day's booking lock. The partial unique index on active start times
// backs it up for identical starts.
func (r *MongoAppointmentRepo) InsertIfNoOverlap(ctx context.Context, appt *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	key := lockKey(appt.CompanyID, appt.ProfessionalID, appt.Date)
	if err := r.ensureLockDoc(ctx, key, appt); err != nil {
		return err
	}

	sess, err := r.appointmentColl.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) (interface{}, error) {
		_, err := r.lockColl.UpdateOne(sc,
			bson.M{"_id": key},
			bson.M{"$inc": bson.M{"version": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		)
		if err != nil {
			return nil, fmt.Errorf("acquire booking lock failed: %w", err)
		}

		overlapping, err := r.appointmentColl.CountDocuments(sc, bson.M{
			"company_id":      appt.CompanyID,
			"professional_id": appt.ProfessionalID,
			"date":            appt.Date,
			"status":          bson.M{"$ne": models.StatusCancelled},
			"start_minute":    bson.M{"$lt": appt.EndMinute},
			"end_minute":      bson.M{"$gt": appt.StartMinute},
		})
		if err != nil {
			return nil, fmt.Errorf("overlap check failed: %w", err)
		}
		if overlapping > 0 {
			return nil, apperr.SlotTaken("%s at %s is no longer available", appt.Date, appt.Time)
		}

		if _, err := r.appointmentColl.InsertOne(sc, appt); err != nil {
			return nil, fmt.Errorf("insert appointment failed: %w", err)
		}
		return nil, nil
	}

	if _, err := sess.WithTransaction(ctx, txnFn); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.SlotTaken("%s at %s is no longer available", appt.Date, appt.Time)
		}
		if apperr.KindOf(err) == apperr.KindSlotTaken {
			return err
		}
		return fmt.Errorf("booking transaction failed: %w", err)
	}
	return nil
}

// ensureLockDoc creates the lock document outside the transaction; upserts
// inside one race on the unique _id and abort both callers.
func (r *MongoAppointmentRepo) ensureLockDoc(ctx context.Context, key string, appt *models.Appointment) error {
	_, err := r.lockColl.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$setOnInsert": bookingLock{
			ID:             key,
			CompanyID:      appt.CompanyID,
			ProfessionalID: appt.ProfessionalID,
			Date:           appt.Date,
			UpdatedAt:      time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to prepare booking lock: %w", err)
	}
	return nil
}
