package statemachine

import (
	"fmt"

	"food-marketplace-api/models"
)

var deliveryTransitions = map[models.DeliveryStatus][]models.DeliveryStatus{
	models.DeliveryAssigned:  {models.DeliveryPickedUp, models.DeliveryFailed, models.DeliveryCancelled},
	models.DeliveryPickedUp:  {models.DeliveryInTransit, models.DeliveryFailed},
	models.DeliveryInTransit: {models.DeliveryDelivered, models.DeliveryFailed},
}

// CanTransitionDelivery validates a courier handoff step.
func CanTransitionDelivery(from, to models.DeliveryStatus) error {
	for _, next := range deliveryTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: delivery %s → %s", ErrInvalidTransition, from, to)
}

// DeliveryTransitionsFrom returns the statuses reachable from a delivery status.
func DeliveryTransitionsFrom(status models.DeliveryStatus) []models.DeliveryStatus {
	return append([]models.DeliveryStatus{}, deliveryTransitions[status]...)
}
