package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names routed by the asynq mux.
const (
	TaskOrderStatus      = "notify:order_status"
	TaskNewOrder         = "notify:new_order"
	TaskDeliveryAssigned = "notify:delivery_assigned"
	TaskWelcome          = "notify:welcome"
)

// OrderStatusPayload tells the customer their order moved.
type OrderStatusPayload struct {
	OrderID    uint   `json:"order_id"`
	CustomerID uint   `json:"customer_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

// NewOrderPayload tells a restaurant owner about an incoming order.
type NewOrderPayload struct {
	OrderID      uint    `json:"order_id"`
	RestaurantID uint    `json:"restaurant_id"`
	OwnerID      uint    `json:"owner_id"`
	Total        float64 `json:"total"`
}

// DeliveryAssignedPayload tells a courier about new work.
type DeliveryAssignedPayload struct {
	DeliveryID  uint `json:"delivery_id"`
	OrderID     uint `json:"order_id"`
	PersonnelID uint `json:"personnel_id"`
	UserID      uint `json:"user_id"`
}

type WelcomePayload struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func newTask(taskType, queue string, payload any) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		taskType,
		raw,
		asynq.MaxRetry(3),
		asynq.Queue(queue),
		asynq.Timeout(30*time.Second),
	), nil
}

func NewOrderStatusTask(p OrderStatusPayload) (*asynq.Task, error) {
	return newTask(TaskOrderStatus, QueueCritical, p)
}

func NewNewOrderTask(p NewOrderPayload) (*asynq.Task, error) {
	return newTask(TaskNewOrder, QueueCritical, p)
}

func NewDeliveryAssignedTask(p DeliveryAssignedPayload) (*asynq.Task, error) {
	return newTask(TaskDeliveryAssigned, QueueCritical, p)
}

func NewWelcomeTask(p WelcomePayload) (*asynq.Task, error) {
	return newTask(TaskWelcome, QueueLow, p)
}
