package cron

import (
	"context"
	"time"

	"agendabot/services/notification"
	"agendabot/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitNotificationWorker starts the asynq server that drains booking
// notifications. The returned server must be shut down by the caller.
func InitNotificationWorker(ctx context.Context, redisOpts asynq.RedisClientOpt, sender notification.Sender, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueNotifications: 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAppointmentCreated, handleAppointmentCreated(sender, logger))

	go monitorRedisConnection(ctx, redisOpts, logger)

	go func() {
		logger.Info("starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("notification worker failed to start",
				zap.Int("attempt", attempts), zap.Int("max_attempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("notification worker gave up; bookings will queue until restart")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()

	return srv
}

func handleAppointmentCreated(sender notification.Sender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseAppointmentCreated(task)
		if err != nil {
			logger.Error("dropping malformed notification task", zap.Error(err))
			return asynq.SkipRetry
		}

		if err := sender.SendAppointmentCreated(ctx, p); err != nil {
			logger.Warn("failed to send appointment notification",
				zap.String("company_id", p.CompanyID),
				zap.String("appointment_id", p.AppointmentID),
				zap.Error(err))
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings the queue's Redis until ctx is done.
func monitorRedisConnection(ctx context.Context, opts asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("notification queue redis unreachable", zap.Error(err))
			}
		}
	}
}
