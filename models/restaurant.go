package models

import "time"

type Restaurant struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	OwnerID     uint       `json:"owner_id" gorm:"uniqueIndex;not null"`
	Owner       User       `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	ZoneID      *uint      `json:"zone_id" gorm:"index"`
	Zone        *Zone      `json:"zone,omitempty" gorm:"foreignKey:ZoneID"`
	Name        string     `json:"name" gorm:"size:150;not null"`
	Cuisine     string     `json:"cuisine" gorm:"size:100"`
	Address     string     `json:"address"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Description string     `json:"description"`
	IsOpen      bool       `json:"is_open" gorm:"default:true"`
	IsVerified  bool       `json:"is_verified" gorm:"default:false"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`
	Rating      float64    `json:"rating" gorm:"default:0"`
	RatingCount int        `json:"rating_count" gorm:"default:0"`
	MenuItems   []MenuItem `json:"menu_items,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AcceptsOrders reports whether customers can currently order from the restaurant.
func (r *Restaurant) AcceptsOrders() bool {
	return r.IsOpen && r.IsVerified && r.IsActive
}

type MenuItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"index;not null"`
	Name         string    `json:"name" gorm:"size:150;not null"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"not null"`
	Category     string    `json:"category" gorm:"size:100"`
	IsAvailable  bool      `json:"is_available" gorm:"default:true"`
	IsVeg        bool      `json:"is_veg" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
