package resolver

import (
	"context"
	"testing"

	"agendabot/database/repository/memstore"
	"agendabot/models"
	"agendabot/utils/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	haircutID      = "6f1c2b1e-1d2a-4c3b-9a55-000000000001"
	haircutBeardID = "6f1c2b1e-1d2a-4c3b-9a55-000000000002"
	manicureID     = "6f1c2b1e-1d2a-4c3b-9a55-000000000003"
	foreignID      = "6f1c2b1e-1d2a-4c3b-9a55-000000000004"
	carlosID       = "6f1c2b1e-1d2a-4c3b-9a55-0000000000a1"
	carlaID        = "6f1c2b1e-1d2a-4c3b-9a55-0000000000a2"
)

func newTestResolver() *DefaultResolver {
	catalog := memstore.NewCatalog(
		[]models.Service{
			{ID: haircutID, CompanyID: "c1", Name: "Haircut", DurationMinutes: 30, Active: true},
			{ID: haircutBeardID, CompanyID: "c1", Name: "Haircut and Beard", DurationMinutes: 60, Active: true},
			{ID: manicureID, CompanyID: "c1", Name: "Manicure", DurationMinutes: 45, Active: true},
			{ID: foreignID, CompanyID: "c2", Name: "Haircut", DurationMinutes: 30, Active: true},
		},
		[]models.Professional{
			{ID: carlosID, CompanyID: "c1", Name: "Carlos Silva", Active: true},
			{ID: carlaID, CompanyID: "c1", Name: "Carla Souza", Active: true},
		},
	)
	return NewResolver(catalog, DefaultScoring())
}

func TestResolveService_BundledNameResolvesToSingleEntry(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	for _, query := range []string{"haircut and beard", "Haircut & Beard", "haircut, beard", "haircut with beard"} {
		t.Run(query, func(t *testing.T) {
			svc, err := r.ResolveService(ctx, "c1", query)
			require.NoError(t, err)
			assert.Equal(t, haircutBeardID, svc.ID)
			assert.Equal(t, 60, svc.DurationMinutes)
		})
	}
}

func TestResolveService_ExactMatchIsCaseInsensitive(t *testing.T) {
	r := newTestResolver()

	svc, err := r.ResolveService(context.Background(), "c1", "HAIRCUT")
	require.NoError(t, err)
	assert.Equal(t, haircutID, svc.ID)
}

func TestResolveService_ByIdentifier(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	svc, err := r.ResolveService(ctx, "c1", manicureID)
	require.NoError(t, err)
	assert.Equal(t, "Manicure", svc.Name)

	_, err = r.ResolveService(ctx, "c1", "6f1c2b1e-1d2a-4c3b-9a55-00000000ffff")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = r.ResolveService(ctx, "c1", foreignID)
	assert.ErrorIs(t, err, apperr.ErrTenantMismatch)
}

func TestResolveService_NoCandidates(t *testing.T) {
	r := newTestResolver()

	_, err := r.ResolveService(context.Background(), "c1", "massage")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = r.ResolveService(context.Background(), "c1", "a e")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveService_BelowThresholdIsAmbiguous(t *testing.T) {
	r := newTestResolver()
	r.Scoring.MinScore = 50

	_, err := r.ResolveService(context.Background(), "c1", "haircut styling")
	assert.ErrorIs(t, err, apperr.ErrAmbiguous)
}

func TestResolveProfessional_Deterministic(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	// "carl" hits both professionals with the same score; the tie-break must
	// pick the same one every time.
	first, err := r.ResolveProfessional(ctx, "c1", "carl")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := r.ResolveProfessional(ctx, "c1", "carl")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
	assert.Equal(t, carlaID, first.ID)
}

func TestResolve_ByKind(t *testing.T) {
	r := newTestResolver()

	e, err := r.Resolve(context.Background(), "c1", models.KindProfessional, "carlos")
	require.NoError(t, err)
	assert.Equal(t, carlosID, e.ID)

	_, err = r.Resolve(context.Background(), "c1", models.EntityKind("room"), "x")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestScoring(t *testing.T) {
	sc := DefaultScoring()

	assert.Equal(t, []string{"corte", "barba"}, sc.Terms("Corte e barba"))
	assert.Equal(t, []string{"cut", "color"}, sc.Terms("cut + color, cut"))

	assert.True(t, IsBundle("Corte e Barba"))
	assert.True(t, IsBundle("Cut+Color"))
	assert.False(t, IsBundle("Escova"))

	terms := sc.Terms("haircut & beard")
	assert.Equal(t, 23, sc.Score("haircut & beard", terms, "Haircut and Beard"))
	assert.Equal(t, 10, sc.Score("haircut & beard", terms, "Haircut"))
}
