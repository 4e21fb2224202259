package booking

import (
	"context"
	"fmt"

	"agendabot/models"
	"agendabot/utils/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var cancellable = []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}

// Cancel rejects malformed ids before touching the store.
func (c *DefaultCoordinator) Cancel(ctx context.Context, companyID, appointmentID string) (*models.Appointment, error) {
	if _, err := uuid.Parse(appointmentID); err != nil {
		return nil, apperr.InvalidIdentifier("%q is not a valid appointment id", appointmentID)
	}

	appt, err := c.Appointments.TransitionStatus(ctx, companyID, appointmentID, cancellable, models.StatusCancelled)
	if err != nil {
		if apperr.KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("failed to cancel appointment %s: %w", appointmentID, err)
	}

	c.Logger.Info("appointment cancelled",
		zap.String("company_id", companyID),
		zap.String("appointment_id", appointmentID))
	return appt, nil
}

func (c *DefaultCoordinator) ListForClient(ctx context.Context, companyID, clientID, fromDate string) ([]models.Appointment, error) {
	if clientID == "" {
		return nil, apperr.InvalidArgument("client is required")
	}
	appts, err := c.Appointments.ListByClient(ctx, companyID, clientID, fromDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}
