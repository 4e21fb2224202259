package appointmentRepo

import (
	"context"

	"agendabot/models"
)

// AppointmentRepository is the booking store. Every method is tenant-scoped
// except GetByID, which the coordinator uses to tell a foreign id from a
// missing one.
type AppointmentRepository interface {
	// ListActive returns the professional's non-cancelled appointments on date.
	ListActive(ctx context.Context, companyID, professionalID, date string) ([]models.Appointment, error)
	// InsertIfNoOverlap inserts appt unless a non-cancelled appointment of the
	// same professional on the same date overlaps it, in which case it
	// returns apperr.ErrSlotTaken. The check and insert are one atomic step.
	InsertIfNoOverlap(ctx context.Context, appt *models.Appointment) error
	// TransitionStatus moves appointment id to status to if its current
	// status is one of from.
	TransitionStatus(ctx context.Context, companyID, id string, from []models.AppointmentStatus, to models.AppointmentStatus) (*models.Appointment, error)
	// ListByClient returns the client's non-cancelled appointments on or after fromDate.
	ListByClient(ctx context.Context, companyID, clientID, fromDate string) ([]models.Appointment, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
}
