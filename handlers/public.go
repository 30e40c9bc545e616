package handlers

import (
	"net/http"

	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRestaurants returns verified, active restaurants (public).
func (h *Handler) ListRestaurants(c *gin.Context) {
	query := h.db(c).Model(&models.Restaurant{}).
		Where("is_verified = ? AND is_active = ?", true, true)

	if cuisine := c.Query("cuisine"); cuisine != "" {
		query = query.Where("LOWER(cuisine) LIKE ?", likePattern(cuisine))
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(search))
	}
	if open, ok := queryBool(c, "open"); ok && open {
		query = query.Where("is_open = ?", true)
	}
	if zoneID := queryUint(c, "zone_id"); zoneID != 0 {
		query = query.Where("zone_id = ?", zoneID)
	}

	var restaurants []models.Restaurant
	meta, err := paginate(query.Order("rating desc, id asc"), pageParams(c), &restaurants)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
		"pagination":  meta,
	})
}

// publicRestaurant loads a restaurant customers are allowed to see.
func (h *Handler) publicRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	var restaurant models.Restaurant
	err := h.db(c).Where("is_verified = ? AND is_active = ?", true, true).First(&restaurant, id).Error
	if err != nil {
		fail(c, orNotFound(err, "Restaurant"))
		return nil, false
	}
	return &restaurant, true
}

func (h *Handler) GetRestaurant(c *gin.Context) {
	restaurant, ok := h.publicRestaurant(c)
	if !ok {
		return
	}
	err := h.db(c).Preload("MenuItems", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_available = ?", true).Order("category, name")
	}).First(restaurant, restaurant.ID).Error
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetMenu returns the available menu of a restaurant (public).
func (h *Handler) GetMenu(c *gin.Context) {
	restaurant, ok := h.publicRestaurant(c)
	if !ok {
		return
	}

	query := h.db(c).Where("restaurant_id = ? AND is_available = ?", restaurant.ID, true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if veg, ok := queryBool(c, "is_veg"); ok && veg {
		query = query.Where("is_veg = ?", true)
	}
	var items []models.MenuItem
	if err := query.Order("category, name").Find(&items).Error; err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"restaurant": restaurant.Name,
		"count":      len(items),
		"menu":       items,
	})
}

var deliveryStates = []models.DeliveryStatus{
	models.DeliveryAssigned,
	models.DeliveryPickedUp,
	models.DeliveryInTransit,
}

// GetStateMachineInfo describes the order and delivery lifecycles.
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	terminal := []models.OrderStatus{}
	for _, s := range models.AllOrderStatuses {
		if s.Terminal() {
			terminal = append(terminal, s)
		}
	}
	delivery := gin.H{}
	for _, s := range deliveryStates {
		delivery[string(s)] = statemachine.DeliveryTransitionsFrom(s)
	}
	respond(c, http.StatusOK, gin.H{
		"state_machine":        statemachine.GetAllTransitions(),
		"terminal_states":      terminal,
		"admin_override":       "admin may move any non-terminal order to any other status",
		"delivery_transitions": delivery,
		"description":          "Food Delivery Order Lifecycle State Machine",
	})
}
