package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/cache"
	"food-marketplace-api/events"
	"food-marketplace-api/jobs"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/pricing"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderLineRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1,max=50"`
}

type PlaceOrderRequest struct {
	RestaurantID    uint               `json:"restaurant_id" binding:"required"`
	DeliveryAddress string             `json:"delivery_address" binding:"required,max=500"`
	DeliveryLat     *float64           `json:"delivery_lat" binding:"omitempty,latitude"`
	DeliveryLng     *float64           `json:"delivery_lng" binding:"omitempty,longitude"`
	Notes           string             `json:"notes" binding:"max=500"`
	Items           []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// quote is the priced form of a PlaceOrderRequest.
type quote struct {
	items    []models.OrderItem
	subtotal float64
	zone     *models.Zone
	charge   float64
	eta      int
}

func (h *Handler) priceOrder(tx *gorm.DB, req *PlaceOrderRequest, restaurant *models.Restaurant) (*quote, error) {
	quantities := map[uint]int{}
	order := []uint{}
	for _, line := range req.Items {
		if _, seen := quantities[line.MenuItemID]; !seen {
			order = append(order, line.MenuItemID)
		}
		quantities[line.MenuItemID] += line.Quantity
	}

	var menu []models.MenuItem
	if err := tx.Where("id IN ?", order).Find(&menu).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}

	q := &quote{}
	lines := make([]pricing.Line, 0, len(order))
	for _, id := range order {
		item, ok := byID[id]
		if !ok || item.RestaurantID != restaurant.ID {
			return nil, apperr.BadRequest(fmt.Sprintf("Menu item %d does not belong to this restaurant", id))
		}
		if !item.IsAvailable {
			return nil, apperr.Unprocessable(fmt.Sprintf("Menu item '%s' is not available", item.Name))
		}
		q.items = append(q.items, models.OrderItem{
			MenuItemID: item.ID,
			Quantity:   quantities[id],
			Price:      item.Price,
			Name:       item.Name,
		})
		lines = append(lines, pricing.Line{Price: item.Price, Quantity: quantities[id]})
	}
	q.subtotal = pricing.Subtotal(lines)

	distance := 0.0
	if req.DeliveryLat != nil && req.DeliveryLng != nil {
		var zones []models.Zone
		if err := tx.Where("is_active = ?", true).Find(&zones).Error; err != nil {
			return nil, err
		}
		q.zone = pricing.NearestZone(zones, *req.DeliveryLat, *req.DeliveryLng)
		if q.zone == nil {
			return nil, apperr.Unprocessable("Delivery location is outside every active delivery zone")
		}
		if restaurant.Latitude != nil && restaurant.Longitude != nil {
			distance = pricing.DistanceKM(*restaurant.Latitude, *restaurant.Longitude, *req.DeliveryLat, *req.DeliveryLng)
		}
	} else if restaurant.ZoneID != nil {
		var zone models.Zone
		res := tx.Where("is_active = ?", true).Limit(1).Find(&zone, *restaurant.ZoneID)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			q.zone = &zone
		}
	}

	if q.zone != nil {
		charge, err := pricing.DeliveryCharge(*q.zone, distance, q.subtotal)
		if errors.Is(err, pricing.ErrBelowMinimum) {
			return nil, apperr.Unprocessable(err.Error()).WithDetails(map[string]any{
				"subtotal":         q.subtotal,
				"min_order_amount": q.zone.MinOrderAmount,
			})
		}
		if err != nil {
			return nil, err
		}
		q.charge = charge
	}
	q.eta = pricing.EstimateMinutes(len(q.items), distance)
	return q, nil
}

// PlaceOrder creates a new order (customer only)
func (h *Handler) PlaceOrder(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	var req PlaceOrderRequest
	if !bind(c, &req) {
		return
	}
	if (req.DeliveryLat == nil) != (req.DeliveryLng == nil) {
		fail(c, apperr.BadRequest("delivery_lat and delivery_lng must be provided together"))
		return
	}

	var order models.Order
	var restaurant models.Restaurant
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&restaurant, req.RestaurantID).Error; err != nil {
			return orNotFound(err, "Restaurant")
		}
		if !restaurant.AcceptsOrders() {
			return apperr.Unprocessable("Restaurant is not accepting orders right now")
		}

		q, err := h.priceOrder(tx, &req, &restaurant)
		if err != nil {
			return err
		}

		order = models.Order{
			CustomerID:      customerID,
			RestaurantID:    restaurant.ID,
			Status:          models.StatusPlaced,
			Subtotal:        q.subtotal,
			DeliveryCharge:  q.charge,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryLat:     req.DeliveryLat,
			DeliveryLng:     req.DeliveryLng,
			Notes:           req.Notes,
			EstimatedTime:   q.eta,
			Items:           q.items,
		}
		if q.zone != nil {
			order.ZoneID = &q.zone.ID
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return appendHistory(tx, order.ID, "", models.StatusPlaced, customerID, "Order placed by customer")
	})
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.Notifier.NewOrder(ctx, jobs.NewOrderPayload{
		OrderID:      order.ID,
		RestaurantID: restaurant.ID,
		OwnerID:      restaurant.OwnerID,
		Total:        order.TotalPrice,
	}); err != nil {
		h.log(c).Warn().Err(err).Uint("order_id", order.ID).Msg("new order notification not enqueued")
	}
	if err := h.Events.Publish(ctx, events.NewOrderEvent(order.ID, events.ActionCreated, order,
		"restaurant_id", strconv.FormatUint(uint64(restaurant.ID), 10))); err != nil {
		h.log(c).Warn().Err(err).Uint("order_id", order.ID).Msg("order created event not published")
	}
	h.invalidate(ctx, cache.AdminDashboardKey(), cache.RestaurantDashboardKey(restaurant.ID))

	if err := h.db(c).Preload("Items.MenuItem").Preload("Restaurant").First(&order, order.ID).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{
		"message":        "Order placed successfully",
		"order":          order,
		"estimated_time": order.EstimatedTime,
	})
}

// GetMyOrders returns all orders for the logged-in customer
func (h *Handler) GetMyOrders(c *gin.Context) {
	query := h.db(c).Model(&models.Order{}).
		Where("customer_id = ?", middleware.GetUserID(c))
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	meta, err := paginate(query.Order("created_at desc"), pageParams(c), &orders, preload("Items", "Restaurant"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": orders, "pagination": meta})
}

func (h *Handler) loadOrderDetail(c *gin.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := h.db(c).
		Preload("Items.MenuItem").
		Preload("Restaurant").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc, id asc") }).
		Preload("Driver").
		Preload("Deliveries").
		First(&order, id).Error
	if err != nil {
		return nil, orNotFound(err, "Order")
	}
	return &order, nil
}

// GetOrderDetail returns a single order's full detail with history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.loadOrderDetail(c, id)
	if err != nil {
		fail(c, err)
		return
	}
	if order.CustomerID != middleware.GetUserID(c) {
		fail(c, apperr.Forbidden("This order does not belong to you"))
		return
	}

	respond(c, http.StatusOK, gin.H{
		"order":             order,
		"minutes_elapsed":   int(time.Since(order.CreatedAt).Minutes()),
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
	})
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CancelOrder cancels an order (customer can cancel PLACED or CONFIRMED)
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	customerID := middleware.GetUserID(c)

	var order models.Order
	if err := h.db(c).First(&order, id).Error; err != nil {
		fail(c, orNotFound(err, "Order"))
		return
	}
	if order.CustomerID != customerID {
		fail(c, apperr.Forbidden("This order does not belong to you"))
		return
	}

	note := "Order cancelled by customer"
	if req.Reason != "" {
		note += ": " + req.Reason
	}
	res, err := h.changeStatus(c, &order, models.StatusCancelled, statemachine.ActorCustomer, customerID, note)
	if err != nil {
		fail(c, err)
		return
	}
	h.finish(c, res)
	respond(c, http.StatusOK, gin.H{"message": "Order cancelled successfully", "order_id": order.ID, "status": order.Status})
}
