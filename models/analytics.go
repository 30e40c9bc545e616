package models

import "time"

type DeliveryEventType string

const (
	EventDeliveryCompleted DeliveryEventType = "delivery_completed"
	EventDeliveryFailed    DeliveryEventType = "delivery_failed"
)

// DeliveryEvent is one analytics record per finished delivery. It is stored
// in MongoDB when configured, otherwise in the relational database.
type DeliveryEvent struct {
	ID               uint              `json:"id" gorm:"primaryKey" bson:"-"`
	DeliveryID       uint              `json:"delivery_id" gorm:"index" bson:"delivery_id"`
	OrderID          uint              `json:"order_id" gorm:"index" bson:"order_id"`
	PersonnelID      uint              `json:"personnel_id" gorm:"index" bson:"personnel_id"`
	RestaurantID     uint              `json:"restaurant_id" bson:"restaurant_id"`
	ZoneID           *uint             `json:"zone_id" bson:"zone_id,omitempty"`
	Type             DeliveryEventType `json:"type" gorm:"size:30" bson:"type"`
	DistanceKM       float64           `json:"distance_km" bson:"distance_km"`
	DurationMinutes  float64           `json:"duration_minutes" bson:"duration_minutes"`
	EstimatedMinutes int               `json:"estimated_minutes" bson:"estimated_minutes"`
	OnTime           bool              `json:"on_time" bson:"on_time"`
	Earnings         float64           `json:"earnings" bson:"earnings"`
	RecordedAt       time.Time         `json:"recorded_at" gorm:"index" bson:"recorded_at"`
}
