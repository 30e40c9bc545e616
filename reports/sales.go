package reports

import (
	"context"
	"fmt"

	"food-marketplace-api/models"
	"food-marketplace-api/pricing"

	"gorm.io/gorm"
)

type SalesTotals struct {
	Days            int     `json:"days"`
	OrderCount      int     `json:"order_count"`
	DeliveredCount  int     `json:"delivered_count"`
	CancelledCount  int     `json:"cancelled_count"`
	GrossRevenue    float64 `json:"gross_revenue"`
	DeliveryRevenue float64 `json:"delivery_revenue"`
	AvgOrderValue   float64 `json:"avg_order_value"`
}

type SalesReport struct {
	RestaurantID uint                    `json:"restaurant_id"`
	From         string                  `json:"from"`
	To           string                  `json:"to"`
	Days         []models.DailySales     `json:"days"`
	Totals       SalesTotals             `json:"totals"`
	Stats        *models.RestaurantStats `json:"stats"`
}

// Sales reads the DailySales rows of a restaurant between from and to
// inclusive, both formatted as models.DateLayout.
func Sales(ctx context.Context, db *gorm.DB, restaurantID uint, from, to string) (*SalesReport, error) {
	report := &SalesReport{RestaurantID: restaurantID, From: from, To: to}

	err := db.WithContext(ctx).
		Where("restaurant_id = ? AND date >= ? AND date <= ?", restaurantID, from, to).
		Order("date ASC").
		Find(&report.Days).Error
	if err != nil {
		return nil, fmt.Errorf("loading daily sales: %w", err)
	}

	for _, d := range report.Days {
		report.Totals.OrderCount += d.OrderCount
		report.Totals.DeliveredCount += d.DeliveredCount
		report.Totals.CancelledCount += d.CancelledCount
		report.Totals.GrossRevenue += d.GrossRevenue
		report.Totals.DeliveryRevenue += d.DeliveryRevenue
	}
	report.Totals.Days = len(report.Days)
	report.Totals.GrossRevenue = pricing.Round2(report.Totals.GrossRevenue)
	report.Totals.DeliveryRevenue = pricing.Round2(report.Totals.DeliveryRevenue)
	if report.Totals.DeliveredCount > 0 {
		report.Totals.AvgOrderValue = pricing.Round2(report.Totals.GrossRevenue / float64(report.Totals.DeliveredCount))
	}

	var stats models.RestaurantStats
	res := db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Limit(1).Find(&stats)
	if res.Error != nil {
		return nil, fmt.Errorf("loading restaurant stats: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		report.Stats = &stats
	}
	return report, nil
}
