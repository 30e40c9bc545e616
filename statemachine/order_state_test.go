package statemachine

import (
	"errors"
	"testing"

	"food-marketplace-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name  string
		from  models.OrderStatus
		to    models.OrderStatus
		actor Actor
		ok    bool
	}{
		{"restaurant confirms", models.StatusPlaced, models.StatusConfirmed, ActorRestaurant, true},
		{"customer cannot confirm", models.StatusPlaced, models.StatusConfirmed, ActorCustomer, false},
		{"customer cancels placed", models.StatusPlaced, models.StatusCancelled, ActorCustomer, true},
		{"customer cancels confirmed", models.StatusConfirmed, models.StatusCancelled, ActorCustomer, true},
		{"customer cannot cancel preparing", models.StatusPreparing, models.StatusCancelled, ActorCustomer, false},
		{"restaurant cancels preparing", models.StatusPreparing, models.StatusCancelled, ActorRestaurant, true},
		{"courier picks up", models.StatusReadyForPickup, models.StatusPickedUp, ActorDelivery, true},
		{"restaurant cannot pick up", models.StatusReadyForPickup, models.StatusPickedUp, ActorRestaurant, false},
		{"courier delivers", models.StatusPickedUp, models.StatusDelivered, ActorDelivery, true},
		{"courier fails", models.StatusPickedUp, models.StatusFailed, ActorDelivery, true},
		{"delivered is terminal", models.StatusDelivered, models.StatusCancelled, ActorRestaurant, false},
		{"admin forces", models.StatusPreparing, models.StatusDelivered, ActorAdmin, true},
		{"admin cannot reopen", models.StatusCancelled, models.StatusPlaced, ActorAdmin, false},
		{"admin unknown status", models.StatusPlaced, models.OrderStatus("LOST"), ActorAdmin, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanTransition(tc.from, tc.to, tc.actor)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
		})
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.Equal(t,
		[]models.OrderStatus{models.StatusConfirmed, models.StatusCancelled},
		ValidTransitionsFrom(models.StatusPlaced))
	assert.Empty(t, ValidTransitionsFrom(models.StatusDelivered))
}

func TestRejectedTransitionDescribesTerminalState(t *testing.T) {
	err := CanTransition(models.StatusCancelled, models.StatusPlaced, ActorCustomer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none (terminal state)")
}

func TestCanTransitionDelivery(t *testing.T) {
	assert.NoError(t, CanTransitionDelivery(models.DeliveryAssigned, models.DeliveryPickedUp))
	assert.NoError(t, CanTransitionDelivery(models.DeliveryPickedUp, models.DeliveryInTransit))
	assert.NoError(t, CanTransitionDelivery(models.DeliveryInTransit, models.DeliveryDelivered))
	assert.NoError(t, CanTransitionDelivery(models.DeliveryAssigned, models.DeliveryCancelled))
	assert.ErrorIs(t, CanTransitionDelivery(models.DeliveryPickedUp, models.DeliveryDelivered), ErrInvalidTransition)
	assert.ErrorIs(t, CanTransitionDelivery(models.DeliveryInTransit, models.DeliveryCancelled), ErrInvalidTransition)
	assert.ErrorIs(t, CanTransitionDelivery(models.DeliveryDelivered, models.DeliveryFailed), ErrInvalidTransition)
}

func TestActorForRole(t *testing.T) {
	assert.Equal(t, ActorCustomer, ActorForRole(models.RoleCustomer))
	assert.Equal(t, ActorDelivery, ActorForRole(models.RoleDelivery))
	assert.Equal(t, ActorAdmin, ActorForRole(models.RoleSuperAdmin))
}
