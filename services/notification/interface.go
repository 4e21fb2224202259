package notification

import (
	"context"
	"fmt"

	"agendabot/models"
	"agendabot/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Notifier is told about booking side effects. Implementations must not
// block the conversation for long; delivery happens elsewhere.
type Notifier interface {
	AppointmentCreated(ctx context.Context, appt models.Appointment) error
}

// Sender delivers a notification to the business. Outbound chat delivery
// lives outside this service, so the default sender only records it.
type Sender interface {
	SendAppointmentCreated(ctx context.Context, p models.AppointmentCreatedPayload) error
}

// Enqueuer is the part of *asynq.Client the notifier uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier turns booking events into asynq tasks.
type QueueNotifier struct {
	queue  Enqueuer
	logger *zap.Logger
}

func NewQueueNotifier(queue Enqueuer, logger *zap.Logger) (*QueueNotifier, error) {
	if queue == nil {
		return nil, fmt.Errorf("notification service initialization error: queue client is nil")
	}
	return &QueueNotifier{queue: queue, logger: logger}, nil
}

func (n *QueueNotifier) AppointmentCreated(ctx context.Context, appt models.Appointment) error {
	task, opts, err := tasks.NewAppointmentCreatedTask(PayloadFor(appt))
	if err != nil {
		return err
	}
	info, err := n.queue.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s for appointment %s: %w", task.Type(), appt.ID, err)
	}
	n.logger.Debug("queued appointment notification",
		zap.String("company_id", appt.CompanyID),
		zap.String("appointment_id", appt.ID),
		zap.String("task_id", info.ID))
	return nil
}

func PayloadFor(appt models.Appointment) models.AppointmentCreatedPayload {
	return models.AppointmentCreatedPayload{
		AppointmentID:    appt.ID,
		CompanyID:        appt.CompanyID,
		ClientID:         appt.ClientID,
		ClientName:       appt.ClientName,
		ServiceName:      appt.ServiceName,
		ProfessionalName: appt.ProfessionalName,
		Date:             appt.Date,
		Time:             appt.Time,
		CreatedAt:        appt.CreatedAt,
	}
}

// LogSender writes notifications to the log.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) SendAppointmentCreated(_ context.Context, p models.AppointmentCreatedPayload) error {
	s.Logger.Info("appointment created",
		zap.String("company_id", p.CompanyID),
		zap.String("appointment_id", p.AppointmentID),
		zap.String("client", p.ClientName),
		zap.String("service", p.ServiceName),
		zap.String("professional", p.ProfessionalName),
		zap.String("date", p.Date),
		zap.String("time", p.Time))
	return nil
}
