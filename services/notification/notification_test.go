package notification

import (
	"context"
	"errors"
	"testing"

	"agendabot/models"
	"agendabot/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func TestQueueNotifier_EnqueuesAppointmentCreated(t *testing.T) {
	q := &fakeQueue{}
	n, err := NewQueueNotifier(q, zap.NewNop())
	require.NoError(t, err)

	appt := models.Appointment{ID: "a1", CompanyID: "c1", ServiceName: "Corte", Date: "2024-03-04", Time: "10:00"}
	require.NoError(t, n.AppointmentCreated(context.Background(), appt))

	require.Len(t, q.tasks, 1)
	p, err := tasks.ParseAppointmentCreated(q.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, "a1", p.AppointmentID)
	assert.Equal(t, "10:00", p.Time)
}

func TestQueueNotifier_EnqueueFailure(t *testing.T) {
	n, err := NewQueueNotifier(&fakeQueue{err: errors.New("redis down")}, zap.NewNop())
	require.NoError(t, err)

	err = n.AppointmentCreated(context.Background(), models.Appointment{ID: "a1"})
	assert.ErrorContains(t, err, "redis down")
}

func TestNewQueueNotifier_RequiresQueue(t *testing.T) {
	_, err := NewQueueNotifier(nil, zap.NewNop())
	assert.Error(t, err)
}
