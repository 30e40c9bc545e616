// Package reports builds the DailySales and RestaurantStats rollups and the
// sales report read from them.
package reports

import (
	"context"
	"fmt"
	"time"

	"food-marketplace-api/models"
	"food-marketplace-api/pricing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderAggregates = `restaurant_id,
	COUNT(*) AS order_count,
	SUM(CASE WHEN status = 'DELIVERED' THEN 1 ELSE 0 END) AS delivered_count,
	SUM(CASE WHEN status = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled_count,
	COALESCE(SUM(CASE WHEN status = 'DELIVERED' THEN total_price ELSE 0 END), 0) AS gross_revenue,
	COALESCE(SUM(CASE WHEN status = 'DELIVERED' THEN delivery_charge ELSE 0 END), 0) AS delivery_revenue`

type orderAggregate struct {
	RestaurantID    uint
	OrderCount      int
	DeliveredCount  int
	CancelledCount  int
	GrossRevenue    float64
	DeliveryRevenue float64
}

// DayBounds returns the UTC day containing t as [start, end).
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Rollup computes DailySales for every restaurant that received orders on
// day. Running it again for the same day overwrites the previous rows.
func Rollup(ctx context.Context, db *gorm.DB, day time.Time) ([]models.DailySales, error) {
	start, end := DayBounds(day)

	var aggs []orderAggregate
	err := db.WithContext(ctx).
		Model(&models.Order{}).
		Select(orderAggregates).
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("restaurant_id").
		Scan(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating orders for %s: %w", start.Format(models.DateLayout), err)
	}
	if len(aggs) == 0 {
		return []models.DailySales{}, nil
	}

	rows := make([]models.DailySales, len(aggs))
	for i, a := range aggs {
		rows[i] = models.DailySales{
			RestaurantID:    a.RestaurantID,
			Date:            start.Format(models.DateLayout),
			OrderCount:      a.OrderCount,
			DeliveredCount:  a.DeliveredCount,
			CancelledCount:  a.CancelledCount,
			GrossRevenue:    pricing.Round2(a.GrossRevenue),
			DeliveryRevenue: pricing.Round2(a.DeliveryRevenue),
		}
		if a.DeliveredCount > 0 {
			rows[i].AvgOrderValue = pricing.Round2(a.GrossRevenue / float64(a.DeliveredCount))
		}
	}

	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "restaurant_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_count", "delivered_count", "cancelled_count",
			"gross_revenue", "delivery_revenue", "avg_order_value", "updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("saving daily sales: %w", err)
	}
	return rows, nil
}

// RefreshRestaurantStats recomputes lifetime figures for every restaurant.
func RefreshRestaurantStats(ctx context.Context, db *gorm.DB) (int, error) {
	var ids []uint
	if err := db.WithContext(ctx).Model(&models.Restaurant{}).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("listing restaurants: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var aggs []orderAggregate
	if err := db.WithContext(ctx).Model(&models.Order{}).Select(orderAggregates).Group("restaurant_id").Scan(&aggs).Error; err != nil {
		return 0, fmt.Errorf("aggregating orders: %w", err)
	}
	byRestaurant := make(map[uint]orderAggregate, len(aggs))
	for _, a := range aggs {
		byRestaurant[a.RestaurantID] = a
	}

	type reviewAggregate struct {
		RestaurantID uint
		ReviewCount  int
		AvgRating    float64
	}
	var reviews []reviewAggregate
	err := db.WithContext(ctx).Model(&models.Review{}).
		Select("restaurant_id, COUNT(*) AS review_count, COALESCE(AVG(food_rating), 0) AS avg_rating").
		Group("restaurant_id").
		Scan(&reviews).Error
	if err != nil {
		return 0, fmt.Errorf("aggregating reviews: %w", err)
	}
	reviewsByRestaurant := make(map[uint]reviewAggregate, len(reviews))
	for _, r := range reviews {
		reviewsByRestaurant[r.RestaurantID] = r
	}

	now := time.Now().UTC()
	stats := make([]models.RestaurantStats, len(ids))
	for i, id := range ids {
		o := byRestaurant[id]
		r := reviewsByRestaurant[id]
		stats[i] = models.RestaurantStats{
			RestaurantID:    id,
			TotalOrders:     o.OrderCount,
			DeliveredOrders: o.DeliveredCount,
			CancelledOrders: o.CancelledCount,
			TotalRevenue:    pricing.Round2(o.GrossRevenue),
			AvgRating:       pricing.Round2(r.AvgRating),
			ReviewCount:     r.ReviewCount,
			ComputedAt:      now,
		}
	}

	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "restaurant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_orders", "delivered_orders", "cancelled_orders",
			"total_revenue", "avg_rating", "review_count", "computed_at", "updated_at",
		}),
	}).Create(&stats).Error
	if err != nil {
		return 0, fmt.Errorf("saving restaurant stats: %w", err)
	}
	return len(stats), nil
}

// Nightly rolls up the previous UTC day and refreshes restaurant stats.
func Nightly(db *gorm.DB, now func() time.Time) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := Rollup(ctx, db, now().UTC().AddDate(0, 0, -1)); err != nil {
			return err
		}
		_, err := RefreshRestaurantStats(ctx, db)
		return err
	}
}
