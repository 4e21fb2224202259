// Package availability computes bookable start times from a tenant's opening
// hours and a professional's existing appointments.
package availability

import (
	"context"
	"fmt"
	"time"

	appointmentRepo "agendabot/database/repository/appointment"
	"agendabot/models"
	"agendabot/utils"
	"agendabot/utils/apperr"

	"go.uber.org/zap"
)

// Query describes one availability lookup. ProfessionalID may be empty for
// "any professional", in which case existing appointments are not consulted.
type Query struct {
	Date            string
	ProfessionalID  string
	DurationMinutes int
	Period          models.Period
}

// Options tunes slot generation.
type Options struct {
	StepMinutes int
	// SafetyMarginMinutes is added after rounding "now" up to the next step
	// when the query is for today.
	SafetyMarginMinutes int
	// RequireFitBeforeClose drops starts whose service would end after
	// closing time. Off by default: a start exactly at closing is offered.
	RequireFitBeforeClose bool
	DefaultTimezone       string
}

func DefaultOptions() Options {
	return Options{StepMinutes: 30, SafetyMarginMinutes: 30, DefaultTimezone: "America/Sao_Paulo"}
}

// Engine answers availability queries for a tenant.
type Engine interface {
	AvailableTimes(ctx context.Context, tenant *models.Tenant, q Query) ([]string, error)
}

// DefaultEngine implements Engine over the appointment store.
type DefaultEngine struct {
	Appointments appointmentRepo.AppointmentRepository
	Options      Options
	Now          func() time.Time
	Logger       *zap.Logger
}

func NewEngine(appointments appointmentRepo.AppointmentRepository, opts Options, logger *zap.Logger) *DefaultEngine {
	return &DefaultEngine{Appointments: appointments, Options: opts, Now: time.Now, Logger: logger}
}

func (e *DefaultEngine) AvailableTimes(ctx context.Context, tenant *models.Tenant, q Query) ([]string, error) {
	if q.DurationMinutes <= 0 {
		return nil, apperr.InvalidArgument("service duration must be positive")
	}
	loc := utils.LoadLocation(tenant.Timezone, e.Options.DefaultTimezone)
	day, err := utils.ParseDateIn(q.Date, loc)
	if err != nil {
		return nil, apperr.InvalidArgument("invalid date %q, expected YYYY-MM-DD", q.Date)
	}

	hours, ok := tenant.Calendar.For(day.Weekday())
	if !ok || !hours.Open {
		return []string{}, nil
	}
	open, err := utils.ClockToMinutes(hours.OpenTime)
	if err != nil {
		e.Logger.Warn("tenant calendar has unparsable opening time",
			zap.String("company_id", tenant.ID), zap.String("weekday", models.WeekdayKey(day.Weekday())), zap.Error(err))
		return []string{}, nil
	}
	closeAt, err := utils.ClockToMinutes(hours.CloseTime)
	if err != nil {
		e.Logger.Warn("tenant calendar has unparsable closing time",
			zap.String("company_id", tenant.ID), zap.String("weekday", models.WeekdayKey(day.Weekday())), zap.Error(err))
		return []string{}, nil
	}

	earliest, ok := e.earliestStart(day, loc)
	if !ok {
		return []string{}, nil
	}

	var busy []models.Appointment
	if q.ProfessionalID != "" {
		busy, err = e.Appointments.ListActive(ctx, tenant.ID, q.ProfessionalID, q.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to load appointments for %s: %w", q.Date, err)
		}
	}

	return Generate(Window{
		Open:           open,
		Close:          closeAt,
		Earliest:       earliest,
		Step:           e.Options.StepMinutes,
		Duration:       q.DurationMinutes,
		Period:         q.Period,
		FitBeforeClose: e.Options.RequireFitBeforeClose,
	}, busy), nil
}

// earliestStart returns the first minute of day that may be offered, and
// false when day is already in the past.
func (e *DefaultEngine) earliestStart(day time.Time, loc *time.Location) (int, bool) {
	now := e.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	switch {
	case day.Before(today):
		return 0, false
	case day.After(today):
		return 0, true
	}
	step := e.Options.StepMinutes
	if step <= 0 {
		step = 30
	}
	minute := now.Hour()*60 + now.Minute()
	rounded := (minute + step - 1) / step * step
	return rounded + e.Options.SafetyMarginMinutes, true
}
