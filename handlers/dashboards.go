package handlers

import (
	"errors"
	"net/http"
	"time"

	"food-marketplace-api/cache"
	"food-marketplace-api/models"
	"food-marketplace-api/reports"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminDashboard struct {
	UsersByRole      map[models.UserRole]int64    `json:"users_by_role"`
	Restaurants      int64                        `json:"restaurants"`
	PendingVerify    int64                        `json:"restaurants_pending_verification"`
	ActivePersonnel  int64                        `json:"active_personnel"`
	OnlinePersonnel  int64                        `json:"online_personnel"`
	Zones            int64                        `json:"zones"`
	OrdersByStatus   map[models.OrderStatus]int64 `json:"orders_by_status"`
	TodayOrders      int64                        `json:"today_orders"`
	TodayRevenue     float64                      `json:"today_revenue"`
	DeliveredRevenue float64                      `json:"delivered_revenue"`
	GeneratedAt      time.Time                    `json:"generated_at"`
}

type TopItem struct {
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity"`
	Revenue    float64 `json:"revenue"`
}

type RestaurantDashboard struct {
	RestaurantID   uint                         `json:"restaurant_id"`
	Name           string                       `json:"name"`
	TodayOrders    int64                        `json:"today_orders"`
	TodayRevenue   float64                      `json:"today_revenue"`
	PendingOrders  int64                        `json:"pending_orders"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	TopItems       []TopItem                    `json:"top_items"`
	Rating         float64                      `json:"rating"`
	RatingCount    int                          `json:"rating_count"`
	GeneratedAt    time.Time                    `json:"generated_at"`
}

type PersonnelDashboard struct {
	PersonnelID     uint                   `json:"personnel_id"`
	Status          models.PersonnelStatus `json:"status"`
	Availability    models.Availability    `json:"availability"`
	TodayDeliveries int64                  `json:"today_deliveries"`
	TodayEarnings   float64                `json:"today_earnings"`
	TotalDeliveries int                    `json:"total_deliveries"`
	TotalEarnings   float64                `json:"total_earnings"`
	Rating          float64                `json:"rating"`
	RatingCount     int                    `json:"rating_count"`
	ActiveDelivery  *models.Delivery       `json:"active_delivery"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// pendingStatuses are orders the kitchen still has to act on.
var pendingStatuses = []models.OrderStatus{
	models.StatusPlaced,
	models.StatusConfirmed,
	models.StatusPreparing,
}

func (h *Handler) GetAdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	dash, err := cache.Remember(ctx, h.Cache, *h.log(c), cache.AdminDashboardKey(), h.Config.Redis.CacheTTL,
		func() (AdminDashboard, error) { return buildAdminDashboard(h.db(c), time.Now()) })
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"dashboard": dash})
}

func buildAdminDashboard(db *gorm.DB, now time.Time) (AdminDashboard, error) {
	dash := AdminDashboard{UsersByRole: map[models.UserRole]int64{}, GeneratedAt: now.UTC()}

	var roles []struct {
		Role  models.UserRole
		Count int64
	}
	if err := db.Model(&models.User{}).Select("role, COUNT(*) AS count").Group("role").Scan(&roles).Error; err != nil {
		return dash, err
	}
	for _, r := range roles {
		dash.UsersByRole[r.Role] = r.Count
	}

	counts := []struct {
		dest  *int64
		model any
		where []any
	}{
		{&dash.Restaurants, &models.Restaurant{}, nil},
		{&dash.PendingVerify, &models.Restaurant{}, []any{"is_verified = ?", false}},
		{&dash.ActivePersonnel, &models.DeliveryPersonnel{}, []any{"status = ?", models.PersonnelActive}},
		{&dash.OnlinePersonnel, &models.DeliveryPersonnel{}, []any{"status = ? AND availability <> ?", models.PersonnelActive, models.AvailabilityOffline}},
		{&dash.Zones, &models.Zone{}, nil},
	}
	for _, q := range counts {
		tx := db.Model(q.model)
		if len(q.where) > 0 {
			tx = tx.Where(q.where[0], q.where[1:]...)
		}
		if err := tx.Count(q.dest).Error; err != nil {
			return dash, err
		}
	}

	orders := db.Model(&models.Order{})
	byStatus, err := statusSummary(orders)
	if err != nil {
		return dash, err
	}
	dash.OrdersByStatus = byStatus

	start, end := reports.DayBounds(now)
	if err := orders.Session(&gorm.Session{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&dash.TodayOrders).Error; err != nil {
		return dash, err
	}
	if err := orders.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("status = ? AND created_at >= ? AND created_at < ?", models.StatusDelivered, start, end).
		Scan(&dash.TodayRevenue).Error; err != nil {
		return dash, err
	}
	err = orders.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("status = ?", models.StatusDelivered).
		Scan(&dash.DeliveredRevenue).Error
	return dash, err
}

func (h *Handler) GetRestaurantDashboard(c *gin.Context) {
	restaurant, err := h.ownRestaurant(c)
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	dash, err := cache.Remember(ctx, h.Cache, *h.log(c), cache.RestaurantDashboardKey(restaurant.ID), h.Config.Redis.CacheTTL,
		func() (RestaurantDashboard, error) { return buildRestaurantDashboard(h.db(c), restaurant, time.Now()) })
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"dashboard": dash})
}

func buildRestaurantDashboard(db *gorm.DB, r *models.Restaurant, now time.Time) (RestaurantDashboard, error) {
	dash := RestaurantDashboard{
		RestaurantID: r.ID,
		Name:         r.Name,
		Rating:       r.Rating,
		RatingCount:  r.RatingCount,
		TopItems:     []TopItem{},
		GeneratedAt:  now.UTC(),
	}
	orders := db.Model(&models.Order{}).Where("restaurant_id = ?", r.ID)

	byStatus, err := statusSummary(orders)
	if err != nil {
		return dash, err
	}
	dash.OrdersByStatus = byStatus
	for _, s := range pendingStatuses {
		dash.PendingOrders += byStatus[s]
	}

	start, end := reports.DayBounds(now)
	if err := orders.Session(&gorm.Session{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&dash.TodayOrders).Error; err != nil {
		return dash, err
	}
	if err := orders.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("status = ? AND created_at >= ? AND created_at < ?", models.StatusDelivered, start, end).
		Scan(&dash.TodayRevenue).Error; err != nil {
		return dash, err
	}

	err = db.Model(&models.OrderItem{}).
		Select("order_items.menu_item_id, order_items.name, SUM(order_items.quantity) AS quantity, SUM(order_items.quantity * order_items.price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.restaurant_id = ? AND orders.status <> ?", r.ID, models.StatusCancelled).
		Group("order_items.menu_item_id, order_items.name").
		Order("quantity desc, order_items.menu_item_id asc").
		Limit(5).
		Scan(&dash.TopItems).Error
	return dash, err
}

// GetPersonnelDashboard is the courier's home screen.
func (h *Handler) GetPersonnelDashboard(c *gin.Context) {
	p, err := h.currentPersonnel(c, h.db(c))
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	dash, err := cache.Remember(ctx, h.Cache, *h.log(c), cache.PersonnelDashboardKey(p.ID), h.Config.Redis.CacheTTL,
		func() (PersonnelDashboard, error) { return buildPersonnelDashboard(h.db(c), p, time.Now()) })
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"dashboard": dash})
}

func buildPersonnelDashboard(db *gorm.DB, p *models.DeliveryPersonnel, now time.Time) (PersonnelDashboard, error) {
	dash := PersonnelDashboard{
		PersonnelID:     p.ID,
		Status:          p.Status,
		Availability:    p.Availability,
		TotalDeliveries: p.TotalDeliveries,
		TotalEarnings:   p.TotalEarnings,
		Rating:          p.Rating,
		RatingCount:     p.RatingCount,
		GeneratedAt:     now.UTC(),
	}

	start, end := reports.DayBounds(now)
	var today struct {
		Deliveries int64
		Earnings   float64
	}
	err := db.Model(&models.Delivery{}).
		Select("COUNT(*) AS deliveries, COALESCE(SUM(fee), 0) AS earnings").
		Where("personnel_id = ? AND status = ? AND delivered_at >= ? AND delivered_at < ?",
			p.ID, models.DeliveryDelivered, start, end).
		Scan(&today).Error
	if err != nil {
		return dash, err
	}
	dash.TodayDeliveries, dash.TodayEarnings = today.Deliveries, today.Earnings

	var active models.Delivery
	err = db.Preload("Order").
		Where("personnel_id = ? AND status IN ?", p.ID, openDeliveryStatuses).
		Order("assigned_at desc").
		First(&active).Error
	switch {
	case err == nil:
		dash.ActiveDelivery = &active
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dash, err
	}
	return dash, nil
}
