// Package resolver maps the free-text service and professional names a client
// types in chat to catalog entries of the tenant.
package resolver

import (
	"context"
	"strings"

	catalogRepo "agendabot/database/repository/catalog"
	"agendabot/models"
	"agendabot/utils/apperr"

	"github.com/google/uuid"
)

// Resolver turns a name or id into a concrete catalog entry.
type Resolver interface {
	ResolveService(ctx context.Context, companyID, query string) (*models.Service, error)
	ResolveProfessional(ctx context.Context, companyID, query string) (*models.Professional, error)
	Resolve(ctx context.Context, companyID string, kind models.EntityKind, query string) (models.CatalogEntry, error)
}

// DefaultResolver implements Resolver over a catalog repository.
type DefaultResolver struct {
	Catalog catalogRepo.CatalogRepository
	Scoring Scoring
}

func NewResolver(catalog catalogRepo.CatalogRepository, scoring Scoring) *DefaultResolver {
	return &DefaultResolver{Catalog: catalog, Scoring: scoring}
}

// source adapts one catalog kind to the shared resolution steps.
type source[T any] struct {
	kind   models.EntityKind
	byID   func(ctx context.Context, id string) (*T, error)
	byName func(ctx context.Context, companyID, name string) ([]T, error)
	search func(ctx context.Context, companyID string, terms []string) ([]T, error)
	entry  func(T) models.CatalogEntry
}

func (r *DefaultResolver) services() source[models.Service] {
	return source[models.Service]{
		kind:   models.KindService,
		byID:   r.Catalog.GetServiceByID,
		byName: r.Catalog.FindServicesByName,
		search: r.Catalog.SearchServices,
		entry:  models.Service.Entry,
	}
}

func (r *DefaultResolver) professionals() source[models.Professional] {
	return source[models.Professional]{
		kind:   models.KindProfessional,
		byID:   r.Catalog.GetProfessionalByID,
		byName: r.Catalog.FindProfessionalsByName,
		search: r.Catalog.SearchProfessionals,
		entry:  models.Professional.Entry,
	}
}

func (r *DefaultResolver) ResolveService(ctx context.Context, companyID, query string) (*models.Service, error) {
	return resolve(ctx, r.services(), r.Scoring, companyID, query)
}

func (r *DefaultResolver) ResolveProfessional(ctx context.Context, companyID, query string) (*models.Professional, error) {
	return resolve(ctx, r.professionals(), r.Scoring, companyID, query)
}

func (r *DefaultResolver) Resolve(ctx context.Context, companyID string, kind models.EntityKind, query string) (models.CatalogEntry, error) {
	switch kind {
	case models.KindService:
		s, err := r.ResolveService(ctx, companyID, query)
		if err != nil {
			return models.CatalogEntry{}, err
		}
		return s.Entry(), nil
	case models.KindProfessional:
		p, err := r.ResolveProfessional(ctx, companyID, query)
		if err != nil {
			return models.CatalogEntry{}, err
		}
		return p.Entry(), nil
	default:
		return models.CatalogEntry{}, apperr.InvalidArgument("unknown entity kind %q", kind)
	}
}

func resolve[T any](ctx context.Context, src source[T], sc Scoring, companyID, query string) (*T, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidArgument("%s name is required", src.kind)
	}

	if _, err := uuid.Parse(query); err == nil {
		item, err := src.byID(ctx, query)
		if err != nil {
			return nil, err
		}
		e := src.entry(*item)
		if e.CompanyID != companyID {
			return nil, apperr.TenantMismatch("%s %s belongs to another company", src.kind, query)
		}
		if !e.Active {
			return nil, apperr.NotFound("%s %s is not active", src.kind, query)
		}
		return item, nil
	}

	exact, err := src.byName(ctx, companyID, query)
	if err != nil {
		return nil, err
	}
	if len(exact) == 1 {
		return &exact[0], nil
	}

	terms := sc.Terms(query)
	if len(terms) == 0 {
		return nil, apperr.NotFound("no %s matches %q", src.kind, query)
	}
	candidates, err := src.search(ctx, companyID, terms)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperr.NotFound("no %s matches %q", src.kind, query)
	}

	best, bestScore := -1, 0
	for i, c := range candidates {
		e := src.entry(c)
		if e.CompanyID != companyID {
			return nil, apperr.TenantMismatch("%s %s belongs to another company", src.kind, e.ID)
		}
		score := sc.Score(query, terms, e.Name)
		if best < 0 || score > bestScore || (score == bestScore && better(query, e, src.entry(candidates[best]))) {
			best, bestScore = i, score
		}
	}
	if bestScore <= sc.MinScore {
		return nil, apperr.Ambiguous("%q does not clearly match any %s", query, src.kind)
	}
	return &candidates[best], nil
}

// better breaks score ties: closer length, then name, then id.
func better(query string, a, b models.CatalogEntry) bool {
	da, db := abs(lengthDiff(a.Name, query)), abs(lengthDiff(b.Name, query))
	if da != db {
		return da < db
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
