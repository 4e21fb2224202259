package catalogRepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"agendabot/models"
	"agendabot/utils/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	services      *mongo.Collection
	professionals *mongo.Collection
}

func NewMongoCatalogRepo(db *mongo.Database) *MongoCatalogRepo {
	return &MongoCatalogRepo{
		services:      db.Collection("services"),
		professionals: db.Collection("professionals"),
	}
}

func (r *MongoCatalogRepo) GetServiceByID(ctx context.Context, id string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var svc models.Service
	if err := r.services.FindOne(ctx, bson.M{"id": id}).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("service %s not found", id)
		}
		return nil, fmt.Errorf("error fetching service %s: %w", id, err)
	}
	return &svc, nil
}

func (r *MongoCatalogRepo) GetProfessionalByID(ctx context.Context, id string) (*models.Professional, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var pro models.Professional
	if err := r.professionals.FindOne(ctx, bson.M{"id": id}).Decode(&pro); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("professional %s not found", id)
		}
		return nil, fmt.Errorf("error fetching professional %s: %w", id, err)
	}
	return &pro, nil
}

func (r *MongoCatalogRepo) FindServicesByName(ctx context.Context, companyID, name string) ([]models.Service, error) {
	var out []models.Service
	err := findAll(ctx, r.services, exactNameFilter(companyID, name), &out)
	return out, err
}

func (r *MongoCatalogRepo) FindProfessionalsByName(ctx context.Context, companyID, name string) ([]models.Professional, error) {
	var out []models.Professional
	err := findAll(ctx, r.professionals, exactNameFilter(companyID, name), &out)
	return out, err
}

func (r *MongoCatalogRepo) SearchServices(ctx context.Context, companyID string, terms []string) ([]models.Service, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var out []models.Service
	err := findAll(ctx, r.services, anyTermFilter(companyID, terms), &out)
	return out, err
}

func (r *MongoCatalogRepo) SearchProfessionals(ctx context.Context, companyID string, terms []string) ([]models.Professional, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var out []models.Professional
	err := findAll(ctx, r.professionals, anyTermFilter(companyID, terms), &out)
	return out, err
}

func (r *MongoCatalogRepo) ListServices(ctx context.Context, companyID string) ([]models.Service, error) {
	var out []models.Service
	err := findAll(ctx, r.services, bson.M{"company_id": companyID, "active": true}, &out)
	return out, err
}

func (r *MongoCatalogRepo) ListProfessionals(ctx context.Context, companyID string) ([]models.Professional, error) {
	var out []models.Professional
	err := findAll(ctx, r.professionals, bson.M{"company_id": companyID, "active": true}, &out)
	return out, err
}

func exactNameFilter(companyID, name string) bson.M {
	return bson.M{
		"company_id": companyID,
		"active":     true,
		"name":       primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"},
	}
}

func anyTermFilter(companyID string, terms []string) bson.M {
	or := make(bson.A, 0, len(terms))
	for _, t := range terms {
		or = append(or, bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(t), Options: "i"}})
	}
	return bson.M{"company_id": companyID, "active": true, "$or": or}
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, out any) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return nil
}
