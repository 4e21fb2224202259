package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"agendabot/models"

	"github.com/hibiken/asynq"
)

const (
	TypeAppointmentCreated = "appointment:created"
	QueueNotifications     = "notifications"
)

func NewAppointmentCreatedTask(payload models.AppointmentCreatedPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode appointment payload: %w", err)
	}
	task := asynq.NewTask(TypeAppointmentCreated, b)
	opts := []asynq.Option{
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		// One notification per appointment even if the enqueue is repeated.
		asynq.TaskID("appointment-created:" + payload.AppointmentID),
	}
	return task, opts, nil
}

func ParseAppointmentCreated(task *asynq.Task) (models.AppointmentCreatedPayload, error) {
	var p models.AppointmentCreatedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", task.Type(), err)
	}
	return p, nil
}
