package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
)

func decode(t *asynq.Task, dest any) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		// Malformed payloads never succeed on retry.
		return errors.Wrapf(asynq.SkipRetry, "unmarshal %s payload: %v", t.Type(), err)
	}
	return nil
}

func (j *JobService) handleOrderStatus(ctx context.Context, t *asynq.Task) error {
	var p OrderStatusPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	return errors.Wrap(j.sink.OrderStatusChanged(ctx, p), "deliver order status notification")
}

func (j *JobService) handleNewOrder(ctx context.Context, t *asynq.Task) error {
	var p NewOrderPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	return errors.Wrap(j.sink.NewOrder(ctx, p), "deliver new order notification")
}

func (j *JobService) handleDeliveryAssigned(ctx context.Context, t *asynq.Task) error {
	var p DeliveryAssignedPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	return errors.Wrap(j.sink.DeliveryAssigned(ctx, p), "deliver assignment notification")
}

func (j *JobService) handleWelcome(ctx context.Context, t *asynq.Task) error {
	var p WelcomePayload
	if err := decode(t, &p); err != nil {
		return err
	}
	return errors.Wrap(j.sink.Welcome(ctx, p), "deliver welcome notification")
}
