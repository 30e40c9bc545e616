package handlers

import (
	"net/http"
	"time"

	"food-marketplace-api/analytics"
	"food-marketplace-api/apperr"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/reports"

	"github.com/gin-gonic/gin"
)

// GetDeliveryAnalytics summarises recorded delivery events over a date range,
// 30 days by default.
func (h *Handler) GetDeliveryAnalytics(c *gin.Context) {
	from, to, err := dateRange(c, 30)
	if err != nil {
		fail(c, err)
		return
	}
	filter := analytics.Filter{
		PersonnelID: queryUint(c, "personnel_id"),
		ZoneID:      queryUint(c, "zone_id"),
	}

	evts, err := h.Analytics.Between(c.Request.Context(), from, to, filter)
	if err != nil {
		fail(c, err)
		return
	}

	orders := h.db(c).Model(&models.Order{}).Where("created_at >= ? AND created_at < ?", from, to)
	if filter.ZoneID != 0 {
		orders = orders.Where("zone_id = ?", filter.ZoneID)
	}
	byStatus, err := statusSummary(orders)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"from":             from.Format(models.DateLayout),
		"to":               to.AddDate(0, 0, -1).Format(models.DateLayout),
		"summary":          analytics.Summarize(evts),
		"orders_by_status": byStatus,
	})
}

// GetSalesReport serves owners their own restaurant and staff any
// restaurant given by restaurant_id.
func (h *Handler) GetSalesReport(c *gin.Context) {
	var restaurantID uint
	if middleware.GetRole(c).IsStaff() {
		restaurantID = queryUint(c, "restaurant_id")
		if restaurantID == 0 {
			fail(c, apperr.BadRequest("restaurant_id is required"))
			return
		}
	} else {
		restaurant, err := h.ownRestaurant(c)
		if err != nil {
			fail(c, err)
			return
		}
		restaurantID = restaurant.ID
	}

	from, to, err := dateRange(c, 30)
	if err != nil {
		fail(c, err)
		return
	}
	report, err := reports.Sales(c.Request.Context(), h.DB, restaurantID,
		from.Format(models.DateLayout), to.AddDate(0, 0, -1).Format(models.DateLayout))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"report": report})
}

// RunRollup recomputes DailySales for one day (yesterday by default) and
// refreshes restaurant stats.
func (h *Handler) RunRollup(c *gin.Context) {
	day, ok, err := parseDay(c, "date")
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		day = time.Now().UTC().AddDate(0, 0, -1)
	}
	ctx := c.Request.Context()
	rows, err := reports.Rollup(ctx, h.DB, day)
	if err != nil {
		fail(c, err)
		return
	}
	refreshed, err := reports.RefreshRestaurantStats(ctx, h.DB)
	if err != nil {
		fail(c, err)
		return
	}
	h.log(c).Info().Str("date", day.Format(models.DateLayout)).Int("restaurants", len(rows)).Msg("rollup run on demand")
	respond(c, http.StatusOK, gin.H{
		"date":                  day.Format(models.DateLayout),
		"daily_sales":           rows,
		"restaurants_refreshed": refreshed,
	})
}
