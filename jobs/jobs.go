// Package jobs runs background work: asynq notification tasks backed by
// Redis and the cron scheduler for the nightly sales rollup.
package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// JobService enqueues notification tasks and runs the workers that process them.
type JobService struct {
	client *asynq.Client
	server *asynq.Server
	// sink performs the actual delivery once a task is dequeued.
	sink   Notifier
	logger zerolog.Logger
}

func NewJobService(redisAddr, redisPassword string, redisDB, concurrency int, logger zerolog.Logger) *JobService {
	opt := asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
		Logger: asynqLogger{logger: logger},
	})
	return &JobService{
		client: asynq.NewClient(opt),
		server: server,
		sink:   NewLogNotifier(logger.With().Str("component", "notifications").Logger()),
		logger: logger.With().Str("component", "jobs").Logger(),
	}
}

// Start registers the handlers and starts the workers without blocking.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOrderStatus, j.handleOrderStatus)
	mux.HandleFunc(TaskNewOrder, j.handleNewOrder)
	mux.HandleFunc(TaskDeliveryAssigned, j.handleDeliveryAssigned)
	mux.HandleFunc(TaskWelcome, j.handleWelcome)

	j.logger.Info().Msg("starting background job server")
	return j.server.Start(mux)
}

func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	if err := j.client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("closing job client")
	}
}

func (j *JobService) enqueue(ctx context.Context, task *asynq.Task, err error) error {
	if err != nil {
		return err
	}
	info, err := j.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	j.logger.Debug().Str("task", task.Type()).Str("id", info.ID).Str("queue", info.Queue).Msg("task enqueued")
	return nil
}

func (j *JobService) OrderStatusChanged(ctx context.Context, p OrderStatusPayload) error {
	task, err := NewOrderStatusTask(p)
	return j.enqueue(ctx, task, err)
}

func (j *JobService) NewOrder(ctx context.Context, p NewOrderPayload) error {
	task, err := NewNewOrderTask(p)
	return j.enqueue(ctx, task, err)
}

func (j *JobService) DeliveryAssigned(ctx context.Context, p DeliveryAssignedPayload) error {
	task, err := NewDeliveryAssignedTask(p)
	return j.enqueue(ctx, task, err)
}

func (j *JobService) Welcome(ctx context.Context, p WelcomePayload) error {
	task, err := NewWelcomeTask(p)
	return j.enqueue(ctx, task, err)
}

// asynqLogger routes asynq's internal logs through zerolog.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
