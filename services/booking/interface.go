package booking

import (
	"context"
	"time"

	appointmentRepo "agendabot/database/repository/appointment"
	"agendabot/models"
	"agendabot/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator commits and cancels appointments. Double booking is prevented
// by the store's atomic InsertIfNoOverlap, never by locking here.
type Coordinator interface {
	Book(ctx context.Context, req BookRequest) (*models.Appointment, error)
	Cancel(ctx context.Context, companyID, appointmentID string) (*models.Appointment, error)
	ListForClient(ctx context.Context, companyID, clientID, fromDate string) ([]models.Appointment, error)
}

// BookRequest carries already-resolved entities.
type BookRequest struct {
	CompanyID    string
	Client       models.Client
	Service      models.Service
	Professional models.Professional
	Date         string
	Time         string
}

// DefaultCoordinator implements Coordinator.
type DefaultCoordinator struct {
	Appointments appointmentRepo.AppointmentRepository
	Notifier     notification.Notifier
	Logger       *zap.Logger
	// NotifyTimeout bounds the background notification enqueue.
	NotifyTimeout time.Duration

	now   func() time.Time
	newID func() string
}

func NewCoordinator(appointments appointmentRepo.AppointmentRepository, notifier notification.Notifier, logger *zap.Logger) *DefaultCoordinator {
	return &DefaultCoordinator{
		Appointments:  appointments,
		Notifier:      notifier,
		Logger:        logger,
		NotifyTimeout: 5 * time.Second,
		now:           time.Now,
		newID:         func() string { return uuid.New().String() },
	}
}
