package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "PLACED"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	StatusPickedUp       OrderStatus = "PICKED_UP"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
	StatusFailed         OrderStatus = "FAILED"
)

// AllOrderStatuses lists statuses in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	StatusPlaced,
	StatusConfirmed,
	StatusPreparing,
	StatusReadyForPickup,
	StatusPickedUp,
	StatusDelivered,
	StatusCancelled,
	StatusFailed,
}

func (s OrderStatus) Valid() bool {
	for _, v := range AllOrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusFailed
}

type Order struct {
	ID              uint                 `json:"id" gorm:"primaryKey"`
	CustomerID      uint                 `json:"customer_id" gorm:"index;not null"`
	Customer        User                 `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	RestaurantID    uint                 `json:"restaurant_id" gorm:"index;not null"`
	Restaurant      Restaurant           `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	DriverID        *uint                `json:"driver_id" gorm:"index"`
	Driver          *User                `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	ZoneID          *uint                `json:"zone_id" gorm:"index"`
	Status          OrderStatus          `json:"status" gorm:"size:30;index;not null;default:'PLACED'"`
	Subtotal        float64              `json:"subtotal"`
	DeliveryCharge  float64              `json:"delivery_charge"`
	TotalPrice      float64              `json:"total_price"`
	DeliveryAddress string               `json:"delivery_address" gorm:"not null"`
	DeliveryLat     *float64             `json:"delivery_lat"`
	DeliveryLng     *float64             `json:"delivery_lng"`
	Notes           string               `json:"notes"`
	EstimatedTime   int                  `json:"estimated_time_minutes"`
	Items           []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory   []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	Deliveries      []Delivery           `json:"deliveries,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// BeforeSave recomputes the total from its parts so it can never drift.
func (o *Order) BeforeSave(*gorm.DB) error {
	o.TotalPrice = decimal.NewFromFloat(o.Subtotal).
		Add(decimal.NewFromFloat(o.DeliveryCharge)).
		Round(2).
		InexactFloat64()
	return nil
}

type OrderItem struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	OrderID    uint     `json:"order_id" gorm:"index;not null"`
	MenuItemID uint     `json:"menu_item_id" gorm:"not null"`
	MenuItem   MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int      `json:"quantity" gorm:"not null"`
	Price      float64  `json:"price" gorm:"not null"` // snapshot price at time of order
	Name       string   `json:"name"`                  // snapshot name
}

// OrderStatusHistory is the append-only audit trail of an order.
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"index;not null"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
