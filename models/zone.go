package models

import "time"

// Zone is a circular delivery coverage region with its own pricing.
type Zone struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	City              string    `json:"city" gorm:"size:100;index;not null"`
	Description       string    `json:"description"`
	CenterLat         float64   `json:"center_lat" gorm:"not null"`
	CenterLng         float64   `json:"center_lng" gorm:"not null"`
	RadiusKM          float64   `json:"radius_km" gorm:"not null"`
	BaseCharge        float64   `json:"base_charge" gorm:"not null;default:0"`
	PerKMCharge       float64   `json:"per_km_charge" gorm:"not null;default:0"`
	MinOrderAmount    float64   `json:"min_order_amount" gorm:"not null;default:0"`
	FreeDeliveryAbove float64   `json:"free_delivery_above" gorm:"not null;default:0"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
