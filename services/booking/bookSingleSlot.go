package booking

import (
	"context"
	"fmt"

	"agendabot/models"
	"agendabot/utils/apperr"

	"go.uber.org/zap"
)

func (c *DefaultCoordinator) Book(ctx context.Context, req BookRequest) (appt *models.Appointment, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("panic during booking", zap.Any("panic", r), zap.String("company_id", req.CompanyID))
			appt, err = nil, fmt.Errorf("internal error occurred during booking: %v", r)
		}
	}()

	slot, err := validateBookRequest(req)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	appt = &models.Appointment{
		ID:               c.newID(),
		CompanyID:        req.CompanyID,
		ServiceID:        req.Service.ID,
		ServiceName:      req.Service.Name,
		ProfessionalID:   req.Professional.ID,
		ProfessionalName: req.Professional.Name,
		ClientID:         req.Client.ID,
		ClientName:       req.Client.Name,
		Date:             slot.date,
		Time:             slot.clock,
		StartMinute:      slot.start,
		EndMinute:        slot.start + req.Service.DurationMinutes,
		DurationMinutes:  req.Service.DurationMinutes,
		Price:            req.Service.Price,
		Status:           models.StatusConfirmed,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := c.Appointments.InsertIfNoOverlap(ctx, appt); err != nil {
		if apperr.KindOf(err) == apperr.KindSlotTaken {
			c.Logger.Info("slot already taken",
				zap.String("company_id", req.CompanyID),
				zap.String("professional_id", req.Professional.ID),
				zap.String("date", slot.date),
				zap.String("time", slot.clock))
			return nil, err
		}
		return nil, fmt.Errorf("booking transaction failed: %w", err)
	}

	c.Logger.Info("appointment booked",
		zap.String("company_id", appt.CompanyID),
		zap.String("appointment_id", appt.ID),
		zap.String("professional_id", appt.ProfessionalID),
		zap.String("date", appt.Date),
		zap.String("time", appt.Time))

	c.notifyCreated(ctx, *appt)
	return appt, nil
}

// notifyCreated enqueues the notification in the background. Failures are
// logged; the booking stands.
func (c *DefaultCoordinator) notifyCreated(ctx context.Context, appt models.Appointment) {
	if c.Notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, c.NotifyTimeout)
		defer cancel()
		if err := c.Notifier.AppointmentCreated(ctx, appt); err != nil {
			c.Logger.Warn("appointment notification not queued",
				zap.String("company_id", appt.CompanyID),
				zap.String("appointment_id", appt.ID),
				zap.Error(err))
		}
	}()
}
