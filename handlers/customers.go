package handlers

import (
	"net/http"

	"food-marketplace-api/cache"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CustomerSummary is a customer account with its ordering totals.
type CustomerSummary struct {
	models.User
	OrderCount int64   `json:"order_count"`
	TotalSpent float64 `json:"total_spent"`
}

type orderTotals struct {
	CustomerID uint
	Orders     int64
	Spent      float64
}

// customerTotals aggregates orders for the given customers in one query.
func customerTotals(db *gorm.DB, ids []uint) (map[uint]orderTotals, error) {
	out := make(map[uint]orderTotals, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []orderTotals
	err := db.Model(&models.Order{}).
		Select("customer_id, COUNT(*) AS orders, COALESCE(SUM(CASE WHEN status = ? THEN total_price ELSE 0 END), 0) AS spent", models.StatusDelivered).
		Where("customer_id IN ?", ids).
		Group("customer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.CustomerID] = r
	}
	return out, nil
}

func (h *Handler) ListCustomers(c *gin.Context) {
	query := h.db(c).Model(&models.User{}).Where("role = ?", models.RoleCustomer)
	if active, ok := queryBool(c, "is_active"); ok {
		query = query.Where("is_active = ?", active)
	}
	if search := c.Query("search"); search != "" {
		p := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", p, p, p)
	}

	var users []models.User
	meta, err := paginate(query.Order("created_at desc"), pageParams(c), &users)
	if err != nil {
		fail(c, err)
		return
	}
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	totals, err := customerTotals(h.db(c), ids)
	if err != nil {
		fail(c, err)
		return
	}
	customers := make([]CustomerSummary, len(users))
	for i, u := range users {
		t := totals[u.ID]
		customers[i] = CustomerSummary{User: u, OrderCount: t.Orders, TotalSpent: t.Spent}
	}
	respond(c, http.StatusOK, gin.H{"customers": customers, "pagination": meta})
}

func (h *Handler) loadCustomer(c *gin.Context) (*models.User, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	var user models.User
	if err := h.db(c).Where("role = ?", models.RoleCustomer).First(&user, id).Error; err != nil {
		fail(c, orNotFound(err, "Customer"))
		return nil, false
	}
	return &user, true
}

func (h *Handler) GetCustomer(c *gin.Context) {
	user, ok := h.loadCustomer(c)
	if !ok {
		return
	}
	totals, err := customerTotals(h.db(c), []uint{user.ID})
	if err != nil {
		fail(c, err)
		return
	}
	var recent []models.Order
	err = h.db(c).Preload("Restaurant").
		Where("customer_id = ?", user.ID).
		Order("created_at desc").Limit(10).
		Find(&recent).Error
	if err != nil {
		fail(c, err)
		return
	}
	t := totals[user.ID]
	respond(c, http.StatusOK, gin.H{
		"customer":      CustomerSummary{User: *user, OrderCount: t.Orders, TotalSpent: t.Spent},
		"recent_orders": recent,
	})
}

// SetCustomerActive blocks or unblocks a customer. Blocked customers are
// rejected by the auth middleware on their next request.
func (h *Handler) SetCustomerActive(c *gin.Context) {
	user, ok := h.loadCustomer(c)
	if !ok {
		return
	}
	var req SetActiveRequest
	if !bind(c, &req) {
		return
	}
	if err := h.db(c).Model(user).Update("is_active", *req.IsActive).Error; err != nil {
		fail(c, err)
		return
	}
	action := "blocked"
	if user.IsActive {
		action = "unblocked"
	}
	h.log(c).Info().Uint("customer_id", user.ID).Uint("admin_id", middleware.GetUserID(c)).Msg("customer " + action)
	h.invalidate(c.Request.Context(), cache.AdminDashboardKey())
	respond(c, http.StatusOK, gin.H{"message": "Customer " + action, "customer": user})
}
