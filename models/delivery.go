package models

import "time"

// DeliveryStatus tracks the physical handoff of an order to a courier.
type DeliveryStatus string

const (
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryPickedUp  DeliveryStatus = "picked_up"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// Open reports whether the delivery still occupies its courier.
func (s DeliveryStatus) Open() bool {
	return s == DeliveryAssigned || s == DeliveryPickedUp || s == DeliveryInTransit
}

type Delivery struct {
	ID            uint               `json:"id" gorm:"primaryKey"`
	OrderID       uint               `json:"order_id" gorm:"index;not null"`
	Order         *Order             `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	PersonnelID   uint               `json:"personnel_id" gorm:"index;not null"`
	Personnel     *DeliveryPersonnel `json:"personnel,omitempty" gorm:"foreignKey:PersonnelID"`
	Status        DeliveryStatus     `json:"status" gorm:"size:20;index;not null;default:'assigned'"`
	PickupLat     *float64           `json:"pickup_lat"`
	PickupLng     *float64           `json:"pickup_lng"`
	DropLat       *float64           `json:"drop_lat"`
	DropLng       *float64           `json:"drop_lng"`
	DistanceKM    float64            `json:"distance_km"`
	Fee           float64            `json:"fee"`
	AssignedAt    time.Time          `json:"assigned_at"`
	PickedUpAt    *time.Time         `json:"picked_up_at"`
	DeliveredAt   *time.Time         `json:"delivered_at"`
	FailureReason string             `json:"failure_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
