package handlers

import (
	"errors"
	"net/http"

	"food-marketplace-api/apperr"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ownRestaurant loads the restaurant of the calling owner.
func (h *Handler) ownRestaurant(c *gin.Context) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := h.db(c).Where("owner_id = ?", middleware.GetUserID(c)).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No restaurant found for your account")
		}
		return nil, err
	}
	return &restaurant, nil
}

// statusSummary counts orders per status for the filtered query.
func statusSummary(query *gorm.DB) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := query.Session(&gorm.Session{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	summary := make(map[models.OrderStatus]int64, len(models.AllOrderStatuses))
	for _, s := range models.AllOrderStatuses {
		summary[s] = 0
	}
	for _, r := range rows {
		summary[r.Status] = r.Count
	}
	return summary, nil
}

// GetRestaurantOrders returns all orders for the restaurant owner
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	restaurant, err := h.ownRestaurant(c)
	if err != nil {
		fail(c, err)
		return
	}

	base := h.db(c).Model(&models.Order{}).Where("restaurant_id = ?", restaurant.ID)
	summary, err := statusSummary(base)
	if err != nil {
		fail(c, err)
		return
	}

	query := base.Session(&gorm.Session{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	meta, err := paginate(query.Order("created_at desc"), pageParams(c), &orders,
		preload("Items.MenuItem", "Customer", "Driver"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"restaurant":    restaurant.Name,
		"order_summary": summary,
		"orders":        orders,
		"pagination":    meta,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note" binding:"max=500"`
}

// UpdateOrderStatus handles restaurant's state transitions
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !bind(c, &req) {
		return
	}
	restaurant, err := h.ownRestaurant(c)
	if err != nil {
		fail(c, err)
		return
	}

	var order models.Order
	if err := h.db(c).First(&order, id).Error; err != nil {
		fail(c, orNotFound(err, "Order"))
		return
	}
	if order.RestaurantID != restaurant.ID {
		fail(c, apperr.Forbidden("This order does not belong to your restaurant"))
		return
	}

	previous := order.Status
	res, err := h.changeStatus(c, &order, req.Status, statemachine.ActorRestaurant, middleware.GetUserID(c), req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	h.finish(c, res)
	respond(c, http.StatusOK, gin.H{
		"message":         "Order status updated",
		"order_id":        order.ID,
		"previous_status": previous,
		"current_status":  order.Status,
	})
}
