package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	LogNotifier
	statuses []OrderStatusPayload
}

func (r *recordingSink) OrderStatusChanged(_ context.Context, p OrderStatusPayload) error {
	r.statuses = append(r.statuses, p)
	return nil
}

func TestTaskConstructorsRouteToQueues(t *testing.T) {
	task, err := NewOrderStatusTask(OrderStatusPayload{OrderID: 5, To: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, TaskOrderStatus, task.Type())

	var p OrderStatusPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, uint(5), p.OrderID)

	welcome, err := NewWelcomeTask(WelcomePayload{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, TaskWelcome, welcome.Type())
}

func TestHandlerForwardsDecodedPayloadToSink(t *testing.T) {
	sink := &recordingSink{LogNotifier: LogNotifier{logger: zerolog.Nop()}}
	j := &JobService{sink: sink, logger: zerolog.Nop()}

	task, err := NewOrderStatusTask(OrderStatusPayload{OrderID: 9, CustomerID: 2, From: "PLACED", To: "CONFIRMED"})
	require.NoError(t, err)

	require.NoError(t, j.handleOrderStatus(context.Background(), task))
	require.Len(t, sink.statuses, 1)
	assert.Equal(t, "CONFIRMED", sink.statuses[0].To)
}

func TestHandlerSkipsRetryOnMalformedPayload(t *testing.T) {
	j := &JobService{sink: NewLogNotifier(zerolog.Nop()), logger: zerolog.Nop()}

	err := j.handleNewOrder(context.Background(), asynq.NewTask(TaskNewOrder, []byte("{not json")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(zerolog.Nop(), time.Minute)
	err := s.Add("rollup", "not a cron spec", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.NoError(t, s.Add("rollup", "5 0 * * *", func(context.Context) error { return nil }))
}
