package ai

import (
	"testing"

	"agendabot/models"
	"agendabot/utils/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeArgs_Coercion(t *testing.T) {
	args, err := decodeArgs(ToolCreateAppointment, map[string]any{
		"service":      "Corte",
		"professional": 42,
		"date":         "04/03/2024",
		"time":         "14h30",
		"client_name":  "  Ana ",
	})
	require.NoError(t, err)

	a := args.(*CreateAppointmentArgs)
	assert.Equal(t, "2024-03-04", a.Date.String())
	assert.Equal(t, "14:30", a.Time.String())
	assert.Equal(t, "42", a.Professional.String())
	assert.Equal(t, "Ana", a.ClientName.String())
}

func TestDecodeArgs_Period(t *testing.T) {
	tests := map[string]models.Period{
		"":          models.PeriodAll,
		"Morning":   models.PeriodMorning,
		"manhã":     models.PeriodMorning,
		"tarde":     models.PeriodAfternoon,
		"noite":     models.PeriodEvening,
		"afternoon": models.PeriodAfternoon,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			args, err := decodeArgs(ToolCheckAvailability, map[string]any{
				"date": "2024-03-04", "service": "corte", "period": in,
			})
			require.NoError(t, err)
			assert.Equal(t, string(want), args.(*CheckAvailabilityArgs).Period.String())
		})
	}
}

func TestDecodeArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		tool string
		raw  map[string]any
		kind apperr.Kind
		msg  string
	}{
		{
			name: "unknown tool",
			tool: "get_slots",
			kind: apperr.KindInvalidArgument,
		},
		{
			name: "missing fields listed in order",
			tool: ToolCreateAppointment,
			raw:  map[string]any{"service": "corte"},
			kind: apperr.KindInvalidArgument,
			msg:  "missing required argument(s): date, time",
		},
		{
			name: "blank field counts as missing",
			tool: ToolCheckAvailability,
			raw:  map[string]any{"date": "2024-03-04", "service": "   "},
			kind: apperr.KindInvalidArgument,
			msg:  "missing required argument(s): service",
		},
		{
			name: "bad date",
			tool: ToolCheckAvailability,
			raw:  map[string]any{"date": "31/02/2024", "service": "corte"},
			kind: apperr.KindInvalidArgument,
		},
		{
			name: "bad time",
			tool: ToolCreateAppointment,
			raw:  map[string]any{"service": "corte", "date": "2024-03-04", "time": "25:00"},
			kind: apperr.KindInvalidArgument,
		},
		{
			name: "object where a string belongs",
			tool: ToolGetClientProfile,
			raw:  map[string]any{"name": map[string]any{"first": "Ana"}},
			kind: apperr.KindInvalidArgument,
		},
		{
			name: "malformed appointment id",
			tool: ToolCancelAppointment,
			raw:  map[string]any{"appointment_id": "abc"},
			kind: apperr.KindInvalidIdentifier,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeArgs(tt.tool, tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, apperr.Message(err))
			}
		})
	}
}

func TestDecodeArgs_NoArgumentTools(t *testing.T) {
	for _, tool := range []string{ToolListAppointments, ToolGetBusinessInfo, ToolGetClientProfile} {
		_, err := decodeArgs(tool, nil)
		assert.NoError(t, err, tool)
	}
}

func TestTools_DeclareEveryHandledTool(t *testing.T) {
	names := map[string]ToolSpec{}
	for _, decl := range Tools() {
		names[decl.Name] = decl
	}
	for _, tool := range []string{
		ToolCheckAvailability, ToolCreateAppointment, ToolListAppointments,
		ToolCancelAppointment, ToolGetBusinessInfo, ToolGetClientProfile,
	} {
		assert.Contains(t, names, tool)
	}
	assert.Equal(t, []string{"service", "professional", "date", "time"}, names[ToolCreateAppointment].Required())
}
