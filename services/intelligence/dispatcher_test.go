package ai

import (
	"context"
	"testing"
	"time"

	"agendabot/database/repository/memstore"
	"agendabot/models"
	"agendabot/services/availability"
	"agendabot/services/booking"
	"agendabot/services/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	corteID       = "0b7e3c52-8f38-4d5e-b6a1-000000000001"
	corteBarbaID  = "0b7e3c52-8f38-4d5e-b6a1-000000000002"
	carlosProID   = "0b7e3c52-8f38-4d5e-b6a1-0000000000a1"
	testClientExt = "+5511999990000"
)

// Friday 2024-03-01 10:00 in São Paulo; the following Monday is 2024-03-04.
var fixedNow = time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)

type dispatcherFixture struct {
	dispatcher   *Dispatcher
	appointments *memstore.Appointments
	clients      *memstore.Clients
	conv         *Conversation
}

func testTenant() *models.Tenant {
	return &models.Tenant{
		ID:           "c1",
		Name:         "Barbearia do Carlos",
		Address:      "Rua A, 10",
		Timezone:     "America/Sao_Paulo",
		AgentEnabled: true,
		Calendar: models.BusinessCalendar{
			"monday": {Open: true, OpenTime: "09:00", CloseTime: "18:00"},
			"friday": {Open: true, OpenTime: "09:00", CloseTime: "18:00"},
		},
	}
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	logger := zap.NewNop()

	catalog := memstore.NewCatalog(
		[]models.Service{
			{ID: corteID, CompanyID: "c1", Name: "Corte", DurationMinutes: 30, Price: 40, Active: true},
			{ID: corteBarbaID, CompanyID: "c1", Name: "Corte e Barba", DurationMinutes: 60, Price: 70, Active: true},
		},
		[]models.Professional{
			{ID: carlosProID, CompanyID: "c1", Name: "Carlos", Active: true},
		},
	)
	appointments := memstore.NewAppointments()
	clients := memstore.NewClients()

	engine := availability.NewEngine(appointments, availability.DefaultOptions(), logger)
	engine.Now = func() time.Time { return fixedNow }

	d := &Dispatcher{
		Resolver:        resolver.NewResolver(catalog, resolver.DefaultScoring()),
		Availability:    engine,
		Booking:         booking.NewCoordinator(appointments, nil, logger),
		Catalog:         catalog,
		Clients:         clients,
		ToolTimeout:     time.Second,
		DefaultTimezone: "America/Sao_Paulo",
		Logger:          logger,
		Now:             func() time.Time { return fixedNow },
	}
	return &dispatcherFixture{
		dispatcher:   d,
		appointments: appointments,
		clients:      clients,
		conv:         NewConversation(testTenant(), testClientExt),
	}
}

func (f *dispatcherFixture) call(name string, args map[string]any) map[string]any {
	res := f.dispatcher.Dispatch(context.Background(), f.conv, models.ToolCall{ID: "call-1", Name: name, Args: args})
	return res.Response
}

func assertFailure(t *testing.T, resp map[string]any, tool, code string) {
	t.Helper()
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, tool, resp["tool"])
	assert.Equal(t, code, resp["error_code"])
	assert.NotEmpty(t, resp["error"])
}

func TestDispatch_CheckAvailabilityCoercesDate(t *testing.T) {
	f := newDispatcherFixture(t)

	resp := f.call(ToolCheckAvailability, map[string]any{
		"date":         "04/03/2024",
		"service":      "corte e barba",
		"professional": "carlos",
		"period":       "manhã",
	})

	require.Equal(t, true, resp["success"], resp)
	assert.Equal(t, "2024-03-04", resp["date"])
	svc := resp["service"].(map[string]any)
	assert.Equal(t, corteBarbaID, svc["id"])
	assert.Equal(t, float64(60), svc["duration_minutes"])
	times := resp["times"].([]any)
	assert.Equal(t, "09:00", times[0])
	assert.Equal(t, "11:30", times[len(times)-1])
}

func TestDispatch_CreateAppointmentGates(t *testing.T) {
	f := newDispatcherFixture(t)

	resp := f.call(ToolCreateAppointment, map[string]any{
		"service": "corte", "professional": "carlos", "date": "2024-03-04", "time": "10:00",
	})
	assertFailure(t, resp, ToolCreateAppointment, "precondition_failed")

	resp = f.call(ToolCreateAppointment, map[string]any{
		"service": "corte", "date": "2024-03-04", "time": "10:00", "client_name": "Ana",
	})
	assertFailure(t, resp, ToolCreateAppointment, "precondition_failed")

	assert.Zero(t, f.appointments.Calls())
}

func TestDispatch_BookListCancel(t *testing.T) {
	f := newDispatcherFixture(t)

	resp := f.call(ToolCreateAppointment, map[string]any{
		"service": "Corte", "professional": "Carlos", "date": "04/03/2024", "time": "14h30", "client_name": "Ana",
	})
	require.Equal(t, true, resp["success"], resp)
	appt := resp["appointment"].(map[string]any)
	assert.Equal(t, "14:30", appt["time"])
	assert.Equal(t, "confirmed", appt["status"])
	id := appt["id"].(string)

	client, err := f.clients.GetByExternalID(context.Background(), "c1", testClientExt)
	require.NoError(t, err)
	assert.Equal(t, "Ana", client.Name)

	resp = f.call(ToolListAppointments, nil)
	require.Equal(t, true, resp["success"], resp)
	list := resp["appointments"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].(map[string]any)["id"])

	resp = f.call(ToolCancelAppointment, map[string]any{"appointment_id": id})
	require.Equal(t, true, resp["success"], resp)
	assert.Equal(t, "cancelled", resp["appointment"].(map[string]any)["status"])

	resp = f.call(ToolListAppointments, nil)
	assert.Empty(t, resp["appointments"])
}

func TestDispatch_CreateAppointmentAtTakenTime(t *testing.T) {
	f := newDispatcherFixture(t)
	args := map[string]any{
		"service": "Corte", "professional": "Carlos", "date": "2024-03-04", "time": "10:00", "client_name": "Ana",
	}

	require.Equal(t, true, f.call(ToolCreateAppointment, args)["success"])

	resp := f.call(ToolCreateAppointment, args)
	assertFailure(t, resp, ToolCreateAppointment, "slot_taken")
	assert.Contains(t, resp["error"], "10:30")

	// Saturday is closed.
	args["date"] = "2024-03-09"
	resp = f.call(ToolCreateAppointment, args)
	assertFailure(t, resp, ToolCreateAppointment, "slot_taken")
}

func TestDispatch_CancelMalformedIDNeverReachesStore(t *testing.T) {
	f := newDispatcherFixture(t)

	resp := f.call(ToolCancelAppointment, map[string]any{"appointment_id": "abc"})

	assertFailure(t, resp, ToolCancelAppointment, "invalid_identifier")
	assert.Zero(t, f.appointments.Calls())
}

func TestDispatch_ArgumentErrors(t *testing.T) {
	f := newDispatcherFixture(t)

	resp := f.call("delete_everything", nil)
	assertFailure(t, resp, "delete_everything", "invalid_argument")

	resp = f.call(ToolCheckAvailability, map[string]any{"date": "2024-03-04"})
	assertFailure(t, resp, ToolCheckAvailability, "invalid_argument")
	assert.Contains(t, resp["error"], "service")

	resp = f.call(ToolCheckAvailability, map[string]any{"date": "amanhã", "service": "corte"})
	assertFailure(t, resp, ToolCheckAvailability, "invalid_argument")

	resp = f.call(ToolCheckAvailability, map[string]any{"date": "2024-03-04", "service": "corte", "period": "dawn"})
	assertFailure(t, resp, ToolCheckAvailability, "invalid_argument")

	resp = f.call(ToolCheckAvailability, map[string]any{"date": "2024-03-04", "service": "massagem"})
	assertFailure(t, resp, ToolCheckAvailability, "not_found")
}

func TestDispatch_NumericArgumentsAreCoerced(t *testing.T) {
	f := newDispatcherFixture(t)

	resp := f.call(ToolCreateAppointment, map[string]any{
		"service": "Corte", "professional": "Carlos", "date": "2024-03-04", "time": 15, "client_name": "Ana",
	})
	require.Equal(t, true, resp["success"], resp)
	assert.Equal(t, "15:00", resp["appointment"].(map[string]any)["time"])
}

type blockingEngine struct{ release chan struct{} }

func (e blockingEngine) AvailableTimes(context.Context, *models.Tenant, availability.Query) ([]string, error) {
	<-e.release
	return nil, nil
}

type panickingEngine struct{}

func (panickingEngine) AvailableTimes(context.Context, *models.Tenant, availability.Query) ([]string, error) {
	panic("calendar exploded")
}

func TestDispatch_TimeoutBecomesFailure(t *testing.T) {
	f := newDispatcherFixture(t)
	release := make(chan struct{})
	defer close(release)
	f.dispatcher.Availability = blockingEngine{release: release}
	f.dispatcher.ToolTimeout = 20 * time.Millisecond

	resp := f.call(ToolCheckAvailability, map[string]any{"date": "2024-03-04", "service": "corte"})

	assertFailure(t, resp, ToolCheckAvailability, "timeout")
}

type slowEngine struct {
	release chan struct{}
	times   []string
}

func (e slowEngine) AvailableTimes(context.Context, *models.Tenant, availability.Query) ([]string, error) {
	<-e.release
	return e.times, nil
}

func TestDispatch_LateCompletionIsLogged(t *testing.T) {
	f := newDispatcherFixture(t)
	core, logs := observer.New(zap.InfoLevel)
	f.dispatcher.Logger = zap.New(core)
	release := make(chan struct{})
	f.dispatcher.Availability = slowEngine{release: release, times: []string{"09:00"}}
	f.dispatcher.ToolTimeout = 20 * time.Millisecond

	resp := f.call(ToolCheckAvailability, map[string]any{"date": "2024-03-04", "service": "corte"})
	assertFailure(t, resp, ToolCheckAvailability, "timeout")

	close(release)
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("tool call completed after timeout").Len() == 1
	}, time.Second, 5*time.Millisecond)
	entry := logs.FilterMessage("tool call completed after timeout").All()[0]
	assert.Equal(t, ToolCheckAvailability, entry.ContextMap()["tool"])
}

func TestDispatch_BookingTimeoutWarnsOutcomeUnknown(t *testing.T) {
	f := newDispatcherFixture(t)
	release := make(chan struct{})
	defer close(release)
	f.dispatcher.Availability = blockingEngine{release: release}
	f.dispatcher.ToolTimeout = 20 * time.Millisecond

	resp := f.call(ToolCreateAppointment, map[string]any{
		"service": "corte", "professional": "carlos", "date": "2024-03-04",
		"time": "10:00", "client_name": "Ana",
	})

	assertFailure(t, resp, ToolCreateAppointment, "timeout")
	assert.Contains(t, resp["error"], "list_appointments")
}

func TestDispatch_PanicBecomesFailure(t *testing.T) {
	f := newDispatcherFixture(t)
	f.dispatcher.Availability = panickingEngine{}

	resp := f.call(ToolCheckAvailability, map[string]any{"date": "2024-03-04", "service": "corte"})

	assert.Equal(t, false, resp["success"])
	assert.Equal(t, ToolCheckAvailability, resp["tool"])
	assert.NotContains(t, resp["error"], "exploded")
}

func TestDispatch_BusinessInfoAndClientProfile(t *testing.T) {
	f := newDispatcherFixture(t)

	info := f.call(ToolGetBusinessInfo, nil)
	require.Equal(t, true, info["success"], info)
	assert.Equal(t, "Barbearia do Carlos", info["name"])
	assert.Equal(t, "2024-03-01", info["today"])
	assert.Equal(t, "friday", info["weekday"])
	hours := info["opening_hours"].(map[string]any)
	assert.Equal(t, "09:00-18:00", hours["monday"])
	assert.Equal(t, "closed", hours["sunday"])
	assert.Len(t, info["services"], 2)

	profile := f.call(ToolGetClientProfile, nil)
	require.Equal(t, true, profile["success"], profile)
	assert.Equal(t, false, profile["name_known"])

	profile = f.call(ToolGetClientProfile, map[string]any{"name": "Bruno"})
	assert.Equal(t, true, profile["name_known"])
	assert.Equal(t, "Bruno", profile["name"])

	// The stored name now satisfies the booking gate.
	resp := f.call(ToolCreateAppointment, map[string]any{
		"service": "Corte", "professional": "Carlos", "date": "2024-03-04", "time": "09:00",
	})
	assert.Equal(t, true, resp["success"], resp)
}

func TestDispatchAll_PreservesOrderAndNames(t *testing.T) {
	f := newDispatcherFixture(t)

	results := f.dispatcher.DispatchAll(context.Background(), f.conv, []models.ToolCall{
		{ID: "1", Name: ToolGetBusinessInfo},
		{ID: "2", Name: ToolCancelAppointment, Args: map[string]any{"appointment_id": "nope"}},
	})

	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].CallID)
	assert.Equal(t, ToolGetBusinessInfo, results[0].Name)
	assert.Equal(t, ToolCancelAppointment, results[1].Name)
	assert.Equal(t, false, results[1].Response["success"])
}
