package models

import (
	"time"

	"gorm.io/gorm"
)

type Review struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	OrderID        uint      `json:"order_id" gorm:"uniqueIndex;not null"`
	CustomerID     uint      `json:"customer_id" gorm:"index;not null"`
	Customer       *User     `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	RestaurantID   uint      `json:"restaurant_id" gorm:"index;not null"`
	PersonnelID    *uint     `json:"personnel_id" gorm:"index"`
	FoodRating     int       `json:"food_rating" gorm:"not null"`
	DeliveryRating int       `json:"delivery_rating" gorm:"not null"`
	OverallRating  float64   `json:"overall_rating"`
	Comment        string    `json:"comment" gorm:"size:1000"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeSave keeps the overall rating in sync with its parts.
func (r *Review) BeforeSave(*gorm.DB) error {
	r.OverallRating = float64(r.FoodRating+r.DeliveryRating) / 2
	return nil
}
