package appointmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agendabot/models"
	"agendabot/utils/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAppointmentRepo implements AppointmentRepository using MongoDB.
type MongoAppointmentRepo struct {
	appointmentColl *mongo.Collection
	lockColl        *mongo.Collection
}

func NewMongoAppointmentRepo(db *mongo.Database) *MongoAppointmentRepo {
	return &MongoAppointmentRepo{
		appointmentColl: db.Collection("appointments"),
		lockColl:        db.Collection("booking_locks"),
	}
}

func (r *MongoAppointmentRepo) ListActive(ctx context.Context, companyID, professionalID, date string) ([]models.Appointment, error) {
	filter := bson.M{
		"company_id":      companyID,
		"professional_id": professionalID,
		"date":            date,
		"status":          bson.M{"$ne": models.StatusCancelled},
	}
	return r.find(ctx, filter, bson.D{{Key: "start_minute", Value: 1}})
}

func (r *MongoAppointmentRepo) ListByClient(ctx context.Context, companyID, clientID, fromDate string) ([]models.Appointment, error) {
	filter := bson.M{
		"company_id": companyID,
		"client_id":  clientID,
		"date":       bson.M{"$gte": fromDate},
		"status":     bson.M{"$ne": models.StatusCancelled},
	}
	return r.find(ctx, filter, bson.D{{Key: "date", Value: 1}, {Key: "start_minute", Value: 1}})
}

func (r *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	if err := r.appointmentColl.FindOne(ctx, bson.M{"id": id}).Decode(&appt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("appointment %s not found", id)
		}
		return nil, fmt.Errorf("error fetching appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (r *MongoAppointmentRepo) TransitionStatus(
	ctx context.Context,
	companyID, id string,
	from []models.AppointmentStatus,
	to models.AppointmentStatus,
) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":         id,
		"company_id": companyID,
		"status":     bson.M{"$in": from},
	}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"active":     to != models.StatusCancelled,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var appt models.Appointment
	err := r.appointmentColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&appt)
	if err == nil {
		return &appt, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update appointment %s: %w", id, err)
	}

	// Nothing matched: work out why.
	existing, lookupErr := r.GetByID(ctx, id)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing.CompanyID != companyID {
		return nil, apperr.TenantMismatch("appointment %s belongs to another company", id)
	}
	return nil, apperr.Precondition("appointment %s is %s", id, existing.Status)
}

func (r *MongoAppointmentRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.appointmentColl.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Appointment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return out, nil
}
