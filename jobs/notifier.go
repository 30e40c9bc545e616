package jobs

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier hands user-facing notifications off to the background workers.
// Implementations must not block the request on delivery.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, p OrderStatusPayload) error
	NewOrder(ctx context.Context, p NewOrderPayload) error
	DeliveryAssigned(ctx context.Context, p DeliveryAssignedPayload) error
	Welcome(ctx context.Context, p WelcomePayload) error
}

// LogNotifier only records notifications. It is used when Redis is not configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderStatusChanged(_ context.Context, p OrderStatusPayload) error {
	n.logger.Info().
		Uint("order_id", p.OrderID).
		Uint("customer_id", p.CustomerID).
		Str("from", p.From).
		Str("to", p.To).
		Msg("order status notification")
	return nil
}

func (n *LogNotifier) NewOrder(_ context.Context, p NewOrderPayload) error {
	n.logger.Info().
		Uint("order_id", p.OrderID).
		Uint("restaurant_id", p.RestaurantID).
		Float64("total", p.Total).
		Msg("new order notification")
	return nil
}

func (n *LogNotifier) DeliveryAssigned(_ context.Context, p DeliveryAssignedPayload) error {
	n.logger.Info().
		Uint("delivery_id", p.DeliveryID).
		Uint("order_id", p.OrderID).
		Uint("personnel_id", p.PersonnelID).
		Msg("delivery assigned notification")
	return nil
}

func (n *LogNotifier) Welcome(_ context.Context, p WelcomePayload) error {
	n.logger.Info().
		Uint("user_id", p.UserID).
		Str("role", p.Role).
		Msg("welcome notification")
	return nil
}
