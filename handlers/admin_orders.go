package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/events"
	"food-marketplace-api/jobs"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// parseDay reads a YYYY-MM-DD query value as a UTC midnight.
func parseDay(c *gin.Context, name string) (time.Time, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, false, apperr.BadRequest("Validation failed",
			apperr.FieldError{Field: name, Error: "must be a date formatted YYYY-MM-DD"})
	}
	return t.UTC(), true, nil
}

// AdminGetAllOrders lists every order with filters and a status summary.
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	query := h.db(c).Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	for _, col := range []string{"customer_id", "restaurant_id", "zone_id", "driver_id"} {
		if id := queryUint(c, col); id != 0 {
			query = query.Where(col+" = ?", id)
		}
	}
	from, ok, err := parseDay(c, "from")
	if err != nil {
		fail(c, err)
		return
	}
	if ok {
		query = query.Where("created_at >= ?", from)
	}
	to, ok, err := parseDay(c, "to")
	if err != nil {
		fail(c, err)
		return
	}
	if ok {
		query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	summary, err := statusSummary(query)
	if err != nil {
		fail(c, err)
		return
	}
	var revenue float64
	if err := query.Session(&gorm.Session{}).Where("status = ?", models.StatusDelivered).
		Select("COALESCE(SUM(total_price), 0)").Scan(&revenue).Error; err != nil {
		fail(c, err)
		return
	}

	var orders []models.Order
	meta, err := paginate(query.Session(&gorm.Session{}).Order("created_at desc"), pageParams(c), &orders,
		preload("Items", "Customer", "Restaurant", "Driver"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"order_summary":     summary,
		"delivered_revenue": revenue,
		"orders":            orders,
		"pagination":        meta,
	})
}

func (h *Handler) AdminGetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.loadOrderDetail(c, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"order":             order,
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
	})
}

type ForceStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Reason string             `json:"reason" binding:"required,max=500"`
}

// AdminForceOrderStatus lets admin override any non-terminal order state.
// The override is audited with the admin's id and reason.
func (h *Handler) AdminForceOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ForceStatusRequest
	if !bind(c, &req) {
		return
	}

	var order models.Order
	if err := h.db(c).First(&order, id).Error; err != nil {
		fail(c, orNotFound(err, "Order"))
		return
	}
	previous := order.Status
	adminID := middleware.GetUserID(c)

	res, err := h.changeStatus(c, &order, req.Status, statemachine.ActorAdmin, adminID, "[ADMIN OVERRIDE] "+req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	h.finish(c, res)
	h.log(c).Warn().
		Uint("order_id", order.ID).
		Str("from", string(previous)).
		Str("to", string(order.Status)).
		Uint("admin_id", adminID).
		Msg("order status overridden")

	respond(c, http.StatusOK, gin.H{
		"message":         "Order status force-updated by admin",
		"order_id":        order.ID,
		"previous_status": previous,
		"new_status":      order.Status,
	})
}

type AssignPersonnelRequest struct {
	PersonnelID uint `json:"personnel_id" binding:"required"`
}

var assignableStatuses = []models.OrderStatus{
	models.StatusConfirmed,
	models.StatusPreparing,
	models.StatusReadyForPickup,
}

// AssignPersonnel hands an order to an online courier ahead of pickup.
func (h *Handler) AssignPersonnel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignPersonnelRequest
	if !bind(c, &req) {
		return
	}
	adminID := middleware.GetUserID(c)
	now := time.Now().UTC()
	res := &flowResult{}

	var delivery *models.Delivery
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return orNotFound(err, "Order")
		}
		assignable := false
		for _, s := range assignableStatuses {
			assignable = assignable || order.Status == s
		}
		if !assignable {
			return apperr.Unprocessable(fmt.Sprintf("Orders in status %s cannot be assigned", order.Status))
		}
		if existing, err := openDelivery(tx, order.ID); err != nil {
			return err
		} else if existing != nil {
			return apperr.Conflict("Order already has a courier assigned")
		}

		var p models.DeliveryPersonnel
		if err := tx.First(&p, req.PersonnelID).Error; err != nil {
			return orNotFound(err, "Delivery personnel")
		}
		if !p.CanTakeDeliveries() {
			return apperr.Unprocessable("Delivery personnel must be active, verified and online").
				WithDetails(map[string]any{"status": p.Status, "availability": p.Availability, "is_verified": p.IsVerified})
		}
		if p.ZoneID != nil && order.ZoneID != nil && *p.ZoneID != *order.ZoneID {
			h.log(c).Info().Uint("order_id", order.ID).Uint("personnel_id", p.ID).Msg("assigning courier outside order zone")
		}

		d, err := newDelivery(tx, &order, &p, models.DeliveryAssigned, now)
		if err != nil {
			return err
		}
		delivery = d

		res.order, res.personnelID = &order, p.ID
		res.assigned = &jobs.DeliveryAssignedPayload{
			DeliveryID: d.ID, OrderID: order.ID, PersonnelID: p.ID, UserID: p.UserID,
		}
		res.events = append(res.events, events.NewOrderEvent(order.ID, events.ActionAssigned, d,
			"personnel_id", strconv.FormatUint(uint64(p.ID), 10),
			"assigned_by", strconv.FormatUint(uint64(adminID), 10),
		))

		if err := tx.Model(&p).Where("availability = ?", models.AvailabilityOnline).
			Update("availability", models.AvailabilityBusy).Error; err != nil {
			return err
		}
		if err := tx.Model(&order).Update("driver_id", p.UserID).Error; err != nil {
			return err
		}
		order.DriverID = &p.UserID
		return appendHistory(tx, order.ID, order.Status, order.Status, adminID,
			fmt.Sprintf("Assigned to delivery personnel #%d", p.ID))
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.finish(c, res)
	respond(c, http.StatusOK, gin.H{"message": "Delivery personnel assigned", "delivery": delivery})
}
