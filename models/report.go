package models

import "time"

// DateLayout is the format of DailySales.Date.
const DateLayout = "2006-01-02"

// DailySales is the per-restaurant rollup of one UTC day of orders.
type DailySales struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	RestaurantID    uint      `json:"restaurant_id" gorm:"uniqueIndex:idx_daily_sales_restaurant_date;not null"`
	Date            string    `json:"date" gorm:"size:10;uniqueIndex:idx_daily_sales_restaurant_date;not null"`
	OrderCount      int       `json:"order_count"`
	DeliveredCount  int       `json:"delivered_count"`
	CancelledCount  int       `json:"cancelled_count"`
	GrossRevenue    float64   `json:"gross_revenue"`
	DeliveryRevenue float64   `json:"delivery_revenue"`
	AvgOrderValue   float64   `json:"avg_order_value"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RestaurantStats holds lifetime figures refreshed by the rollup job.
type RestaurantStats struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	RestaurantID    uint      `json:"restaurant_id" gorm:"uniqueIndex;not null"`
	TotalOrders     int       `json:"total_orders"`
	DeliveredOrders int       `json:"delivered_orders"`
	CancelledOrders int       `json:"cancelled_orders"`
	TotalRevenue    float64   `json:"total_revenue"`
	AvgRating       float64   `json:"avg_rating"`
	ReviewCount     int       `json:"review_count"`
	ComputedAt      time.Time `json:"computed_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
