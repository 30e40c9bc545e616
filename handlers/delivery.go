package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/events"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// currentPersonnel loads the courier profile of the caller.
func (h *Handler) currentPersonnel(c *gin.Context, db *gorm.DB) (*models.DeliveryPersonnel, error) {
	var p models.DeliveryPersonnel
	if err := db.Where("user_id = ?", middleware.GetUserID(c)).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No delivery profile found for your account")
		}
		return nil, err
	}
	return &p, nil
}

func requireWorking(p *models.DeliveryPersonnel) error {
	if p.Status != models.PersonnelActive || !p.IsVerified {
		return apperr.Forbidden("Your delivery profile is not active and verified")
	}
	return nil
}

// AvailableOrders lists READY_FOR_PICKUP orders nobody has claimed, limited
// to the courier's zone when they have one.
func (h *Handler) AvailableOrders(c *gin.Context) {
	p, err := h.currentPersonnel(c, h.db(c))
	if err != nil {
		fail(c, err)
		return
	}

	query := h.db(c).Model(&models.Order{}).
		Where("status = ? AND driver_id IS NULL", models.StatusReadyForPickup)
	if p.ZoneID != nil {
		query = query.Where("zone_id = ?", *p.ZoneID)
	}

	var orders []models.Order
	meta, err := paginate(query.Order("created_at asc"), pageParams(c), &orders, preload("Restaurant", "Items"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"orders": orders, "pagination": meta})
}

// MyDeliveries lists the courier's deliveries, newest first.
func (h *Handler) MyDeliveries(c *gin.Context) {
	p, err := h.currentPersonnel(c, h.db(c))
	if err != nil {
		fail(c, err)
		return
	}

	query := h.db(c).Model(&models.Delivery{}).Where("personnel_id = ?", p.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var deliveries []models.Delivery
	meta, err := paginate(query.Order("assigned_at desc"), pageParams(c), &deliveries,
		preload("Order.Restaurant", "Order.Customer"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deliveries": deliveries, "pagination": meta})
}

// courierOrder loads the order and the caller's profile for a courier action.
func (h *Handler) courierOrder(c *gin.Context, tx *gorm.DB, id uint) (*models.Order, *models.DeliveryPersonnel, error) {
	p, err := h.currentPersonnel(c, tx)
	if err != nil {
		return nil, nil, err
	}
	var order models.Order
	if err := tx.First(&order, id).Error; err != nil {
		return nil, nil, orNotFound(err, "Order")
	}
	return &order, p, nil
}

// myOpenDelivery returns the open delivery of order held by p.
func myOpenDelivery(tx *gorm.DB, order *models.Order, p *models.DeliveryPersonnel) (*models.Delivery, error) {
	d, err := openDelivery(tx, order.ID)
	if err != nil {
		return nil, err
	}
	if d == nil || d.PersonnelID != p.ID {
		return nil, apperr.Forbidden("You are not the assigned courier for this order")
	}
	return d, nil
}

// PickupOrder claims a READY_FOR_PICKUP order, or collects one an admin
// assigned to the caller, and moves it to PICKED_UP.
func (h *Handler) PickupOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	now := time.Now().UTC()
	res := &flowResult{statusMoved: true}

	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		order, p, err := h.courierOrder(c, tx, id)
		if err != nil {
			return err
		}
		if err := requireWorking(p); err != nil {
			return err
		}
		if order.DriverID != nil && *order.DriverID != userID {
			return apperr.Conflict("Order has already been claimed by another courier")
		}
		if err := statemachine.CanTransition(order.Status, models.StatusPickedUp, statemachine.ActorDelivery); err != nil {
			return invalidTransition(err, order.Status)
		}
		res.order, res.from, res.personnelID = order, order.Status, p.ID

		d, err := openDelivery(tx, order.ID)
		if err != nil {
			return err
		}
		switch {
		case d != nil && d.PersonnelID == p.ID:
			if _, err := settleDelivery(tx, d, order, models.DeliveryPickedUp, "", now); err != nil {
				return err
			}
		case d != nil:
			return apperr.Conflict("Order has already been claimed by another courier")
		default:
			if p.Availability != models.AvailabilityOnline {
				return apperr.Conflict("Go online and finish your current delivery before claiming another order")
			}
			claimed, err := newDelivery(tx, order, p, models.DeliveryPickedUp, now)
			if err != nil {
				return err
			}
			res.events = append(res.events, events.NewOrderEvent(order.ID, events.ActionAssigned, claimed,
				"personnel_id", strconv.FormatUint(uint64(p.ID), 10),
				"claimed", "true",
			))
			if err := tx.Model(p).Update("availability", models.AvailabilityBusy).Error; err != nil {
				return err
			}
		}

		order.DriverID = &userID
		return transition(tx, order, models.StatusPickedUp, userID, "Courier picked up the order",
			map[string]interface{}{"driver_id": userID})
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.finish(c, res)
	respond(c, http.StatusOK, gin.H{
		"message":  "Order picked up successfully",
		"order_id": res.order.ID,
		"status":   res.order.Status,
	})
}

// MarkInTransit advances the delivery only; the order stays PICKED_UP.
func (h *Handler) MarkInTransit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	now := time.Now().UTC()
	res := &flowResult{}

	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		order, p, err := h.courierOrder(c, tx, id)
		if err != nil {
			return err
		}
		d, err := myOpenDelivery(tx, order, p)
		if err != nil {
			return err
		}
		if _, err := settleDelivery(tx, d, order, models.DeliveryInTransit, "", now); err != nil {
			return err
		}
		res.order, res.personnelID = order, p.ID
		res.events = append(res.events, events.NewOrderEvent(order.ID, events.ActionStatusChanged, nil,
			"delivery_status", string(models.DeliveryInTransit)))
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.finish(c, res)
	respond(c, http.StatusOK, gin.H{
		"message":         "Delivery is in transit",
		"order_id":        res.order.ID,
		"delivery_status": models.DeliveryInTransit,
	})
}

// DeliverOrder completes the delivery and moves the order to DELIVERED.
func (h *Handler) DeliverOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	now := time.Now().UTC()
	res := &flowResult{statusMoved: true}

	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		order, p, err := h.courierOrder(c, tx, id)
		if err != nil {
			return err
		}
		if order.DriverID == nil || *order.DriverID != userID {
			return apperr.Forbidden("You are not the assigned courier for this order")
		}
		if err := statemachine.CanTransition(order.Status, models.StatusDelivered, statemachine.ActorDelivery); err != nil {
			return invalidTransition(err, order.Status)
		}
		d, err := myOpenDelivery(tx, order, p)
		if err != nil {
			return err
		}
		res.order, res.from, res.personnelID = order, order.Status, p.ID

		event, err := settleDelivery(tx, d, order, models.DeliveryDelivered, "", now)
		if err != nil {
			return err
		}
		res.analytics = event
		return transition(tx, order, models.StatusDelivered, userID, "Order delivered to customer", nil)
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.finish(c, res)
	respond(c, http.StatusOK, gin.H{
		"message":  "Order delivered successfully",
		"order_id": res.order.ID,
		"status":   res.order.Status,
	})
}

type FailDeliveryRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// FailDelivery reports a failed attempt. Before pickup the order is released
// for another courier; after pickup the order itself fails.
func (h *Handler) FailDelivery(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req FailDeliveryRequest
	if !bind(c, &req) {
		return
	}
	userID := middleware.GetUserID(c)
	now := time.Now().UTC()
	res := &flowResult{}

	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		order, p, err := h.courierOrder(c, tx, id)
		if err != nil {
			return err
		}
		d, err := myOpenDelivery(tx, order, p)
		if err != nil {
			return err
		}
		res.order, res.from, res.personnelID = order, order.Status, p.ID
		pickedUp := d.Status != models.DeliveryAssigned

		event, err := settleDelivery(tx, d, order, models.DeliveryFailed, req.Reason, now)
		if err != nil {
			return err
		}
		res.analytics = event

		note := "Delivery failed: " + req.Reason
		if pickedUp {
			if err := statemachine.CanTransition(order.Status, models.StatusFailed, statemachine.ActorDelivery); err != nil {
				return invalidTransition(err, order.Status)
			}
			res.statusMoved = true
			return transition(tx, order, models.StatusFailed, userID, note, nil)
		}

		if err := tx.Model(order).Update("driver_id", nil).Error; err != nil {
			return err
		}
		order.DriverID = nil
		res.events = append(res.events, events.NewOrderEvent(order.ID, events.ActionStatusChanged, nil,
			"delivery_status", string(models.DeliveryFailed), "released", "true"))
		return appendHistory(tx, order.ID, order.Status, order.Status, userID,
			fmt.Sprintf("%s (order released for reassignment)", note))
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.finish(c, res)
	respond(c, http.StatusOK, gin.H{
		"message":  "Delivery failure recorded",
		"order_id": res.order.ID,
		"status":   res.order.Status,
	})
}
