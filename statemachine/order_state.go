package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"food-marketplace-api/models"
)

// ErrInvalidTransition is wrapped by every rejected transition.
var ErrInvalidTransition = errors.New("invalid transition")

// Actor is the party requesting a transition.
type Actor string

const (
	ActorCustomer   Actor = "customer"
	ActorRestaurant Actor = "restaurant"
	ActorDelivery   Actor = "delivery"
	ActorAdmin      Actor = "admin"
)

// ActorForRole maps an authenticated role onto the actor it acts as.
func ActorForRole(role models.UserRole) Actor {
	switch role {
	case models.RoleCustomer:
		return ActorCustomer
	case models.RoleRestaurant:
		return ActorRestaurant
	case models.RoleDelivery:
		return ActorDelivery
	default:
		return ActorAdmin
	}
}

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor Actor              `json:"actor"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	{From: models.StatusPlaced, To: models.StatusConfirmed, Actor: ActorRestaurant},
	{From: models.StatusPlaced, To: models.StatusCancelled, Actor: ActorRestaurant},
	{From: models.StatusPlaced, To: models.StatusCancelled, Actor: ActorCustomer},
	{From: models.StatusConfirmed, To: models.StatusPreparing, Actor: ActorRestaurant},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorRestaurant},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorCustomer},
	{From: models.StatusPreparing, To: models.StatusReadyForPickup, Actor: ActorRestaurant},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorRestaurant},
	{From: models.StatusReadyForPickup, To: models.StatusPickedUp, Actor: ActorDelivery},
	{From: models.StatusPickedUp, To: models.StatusDelivered, Actor: ActorDelivery},
	{From: models.StatusPickedUp, To: models.StatusFailed, Actor: ActorDelivery},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	nexts := []models.OrderStatus{}
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// Admins may move any non-terminal order to any other valid status.
func CanTransition(from, to models.OrderStatus, actor Actor) error {
	if actor == ActorAdmin {
		if !to.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
		}
		if from.Terminal() || from == to {
			return fmt.Errorf("%w: %s → %s cannot be forced", ErrInvalidTransition, from, to)
		}
		return nil
	}
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		ErrInvalidTransition, from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
