package handlers

import (
	"net/http"

	"food-marketplace-api/apperr"
	"food-marketplace-api/cache"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ── Restaurant Management ────────────────────────────────────────────────────

type CreateRestaurantRequest struct {
	Name        string   `json:"name" binding:"required,max=150"`
	Cuisine     string   `json:"cuisine" binding:"max=100"`
	Address     string   `json:"address" binding:"required"`
	Description string   `json:"description"`
	ZoneID      *uint    `json:"zone_id"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// CreateRestaurant lets a restaurant-role user open their single restaurant.
// It stays hidden from customers until an admin verifies it.
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if !bind(c, &req) {
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		fail(c, apperr.BadRequest("Validation failed",
			apperr.FieldError{Field: "latitude", Error: "latitude and longitude must be given together"}))
		return
	}
	ownerID := middleware.GetUserID(c)

	restaurant := models.Restaurant{
		OwnerID:     ownerID,
		ZoneID:      req.ZoneID,
		Name:        req.Name,
		Cuisine:     req.Cuisine,
		Address:     req.Address,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsOpen:      true,
		IsActive:    true,
	}
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Restaurant{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("You already own a restaurant")
		}
		if err := h.zoneExists(tx, req.ZoneID); err != nil {
			return err
		}
		return tx.Create(&restaurant).Error
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.AdminDashboardKey())
	respond(c, http.StatusCreated, gin.H{"message": "Restaurant created, pending verification", "restaurant": restaurant})
}

func (h *Handler) GetMyRestaurant(c *gin.Context) {
	restaurant, err := h.ownRestaurant(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.db(c).Preload("MenuItems").Preload("Zone").First(restaurant, restaurant.ID).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurant": restaurant})
}

type UpdateRestaurantRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=150"`
	Cuisine     *string  `json:"cuisine" binding:"omitempty,max=100"`
	Address     *string  `json:"address" binding:"omitempty,min=1"`
	Description *string  `json:"description"`
	IsOpen      *bool    `json:"is_open"`
	ZoneID      *uint    `json:"zone_id"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// changes collects only the fields present in the request.
func (r UpdateRestaurantRequest) changes() map[string]any {
	update := map[string]any{}
	if r.Name != nil {
		update["name"] = *r.Name
	}
	if r.Cuisine != nil {
		update["cuisine"] = *r.Cuisine
	}
	if r.Address != nil {
		update["address"] = *r.Address
	}
	if r.Description != nil {
		update["description"] = *r.Description
	}
	if r.IsOpen != nil {
		update["is_open"] = *r.IsOpen
	}
	if r.ZoneID != nil {
		update["zone_id"] = *r.ZoneID
	}
	if r.Latitude != nil {
		update["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		update["longitude"] = *r.Longitude
	}
	return update
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	restaurant, err := h.ownRestaurant(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req UpdateRestaurantRequest
	if !bind(c, &req) {
		return
	}
	if err := h.zoneExists(h.db(c), req.ZoneID); err != nil {
		fail(c, err)
		return
	}
	update := req.changes()
	if len(update) == 0 {
		fail(c, apperr.BadRequest("No updatable fields supplied"))
		return
	}
	if err := h.db(c).Model(restaurant).Updates(update).Error; err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.RestaurantDashboardKey(restaurant.ID))
	respond(c, http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// ── Menu Management ─────────────────────────────────────────────────────────

type CreateMenuItemRequest struct {
	Name        string  `json:"name" binding:"required,max=150"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"max=100"`
	IsVeg       bool    `json:"is_veg"`
}

func (h *Handler) AddMenuItem(c *gin.Context) {
	restaurant, err := h.ownRestaurant(c)
	if err != nil {
		fail(c, apperr.NotFound("Create a restaurant first before adding menu items"))
		return
	}
	var req CreateMenuItemRequest
	if !bind(c, &req) {
		return
	}

	item := models.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		IsVeg:        req.IsVeg,
		IsAvailable:  true,
	}
	if err := h.db(c).Create(&item).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// ownMenuItem loads a menu item and checks it belongs to the caller.
func (h *Handler) ownMenuItem(c *gin.Context) (*models.MenuItem, bool) {
	id, ok := pathID(c, "itemId")
	if !ok {
		return nil, false
	}
	var item models.MenuItem
	if err := h.db(c).First(&item, id).Error; err != nil {
		fail(c, orNotFound(err, "Menu item"))
		return nil, false
	}
	var count int64
	err := h.db(c).Model(&models.Restaurant{}).
		Where("id = ? AND owner_id = ?", item.RestaurantID, middleware.GetUserID(c)).
		Count(&count).Error
	if err != nil {
		fail(c, err)
		return nil, false
	}
	if count == 0 {
		fail(c, apperr.Forbidden("You don't own this menu item"))
		return nil, false
	}
	return &item, true
}

type UpdateMenuItemRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=150"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Category    *string  `json:"category" binding:"omitempty,max=100"`
	IsVeg       *bool    `json:"is_veg"`
	IsAvailable *bool    `json:"is_available"`
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	item, ok := h.ownMenuItem(c)
	if !ok {
		return
	}
	var req UpdateMenuItemRequest
	if !bind(c, &req) {
		return
	}
	update := map[string]any{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Price != nil {
		update["price"] = *req.Price
	}
	if req.Category != nil {
		update["category"] = *req.Category
	}
	if req.IsVeg != nil {
		update["is_veg"] = *req.IsVeg
	}
	if req.IsAvailable != nil {
		update["is_available"] = *req.IsAvailable
	}
	if len(update) == 0 {
		fail(c, apperr.BadRequest("No updatable fields supplied"))
		return
	}
	if err := h.db(c).Model(item).Updates(update).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	item, ok := h.ownMenuItem(c)
	if !ok {
		return
	}
	var ordered int64
	if err := h.db(c).Model(&models.OrderItem{}).Where("menu_item_id = ?", item.ID).Count(&ordered).Error; err != nil {
		fail(c, err)
		return
	}
	if ordered > 0 {
		fail(c, apperr.Conflict("Menu item appears in past orders; mark it unavailable instead"))
		return
	}
	if err := h.db(c).Delete(item).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// ── Admin ───────────────────────────────────────────────────────────────────

func (h *Handler) AdminListRestaurants(c *gin.Context) {
	query := h.db(c).Model(&models.Restaurant{})
	if v, ok := queryBool(c, "is_verified"); ok {
		query = query.Where("is_verified = ?", v)
	}
	if v, ok := queryBool(c, "is_active"); ok {
		query = query.Where("is_active = ?", v)
	}
	if zoneID := queryUint(c, "zone_id"); zoneID != 0 {
		query = query.Where("zone_id = ?", zoneID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(search))
	}

	var restaurants []models.Restaurant
	meta, err := paginate(query.Order("created_at desc"), pageParams(c), &restaurants, preload("Owner"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"restaurants": restaurants, "pagination": meta})
}

func (h *Handler) adminRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	var restaurant models.Restaurant
	if err := h.db(c).First(&restaurant, id).Error; err != nil {
		fail(c, orNotFound(err, "Restaurant"))
		return nil, false
	}
	return &restaurant, true
}

func (h *Handler) VerifyRestaurant(c *gin.Context) {
	restaurant, ok := h.adminRestaurant(c)
	if !ok {
		return
	}
	if restaurant.IsVerified {
		fail(c, apperr.Conflict("Restaurant is already verified"))
		return
	}
	if err := h.db(c).Model(restaurant).Update("is_verified", true).Error; err != nil {
		fail(c, err)
		return
	}
	h.log(c).Info().Uint("restaurant_id", restaurant.ID).Uint("admin_id", middleware.GetUserID(c)).Msg("restaurant verified")
	h.invalidate(c.Request.Context(), cache.AdminDashboardKey())
	respond(c, http.StatusOK, gin.H{"message": "Restaurant verified", "restaurant": restaurant})
}

// SetRestaurantActive activates or deactivates a restaurant. Deactivated
// restaurants disappear from public listings and stop taking orders.
func (h *Handler) SetRestaurantActive(c *gin.Context) {
	restaurant, ok := h.adminRestaurant(c)
	if !ok {
		return
	}
	var req SetActiveRequest
	if !bind(c, &req) {
		return
	}
	if err := h.db(c).Model(restaurant).Update("is_active", *req.IsActive).Error; err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.AdminDashboardKey(), cache.RestaurantDashboardKey(restaurant.ID))
	state := "deactivated"
	if restaurant.IsActive {
		state = "activated"
	}
	respond(c, http.StatusOK, gin.H{"message": "Restaurant " + state, "restaurant": restaurant})
}
