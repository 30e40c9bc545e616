package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/cache"
	"food-marketplace-api/events"
	"food-marketplace-api/jobs"
	"food-marketplace-api/models"
	"food-marketplace-api/pricing"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var openDeliveryStatuses = []models.DeliveryStatus{
	models.DeliveryAssigned,
	models.DeliveryPickedUp,
	models.DeliveryInTransit,
}

var errConcurrentUpdate = apperr.Conflict("Order was modified by another request; reload and retry")

// flowResult collects what happened inside a transaction so side effects run
// only after it commits.
type flowResult struct {
	order       *models.Order
	from        models.OrderStatus
	statusMoved bool
	events      []events.OrderEvent
	assigned    *jobs.DeliveryAssignedPayload
	analytics   *models.DeliveryEvent
	personnelID uint
}

// invalidTransition renders a rejected transition with the valid next states.
func invalidTransition(err error, current models.OrderStatus) error {
	return apperr.Unprocessable(err.Error()).WithDetails(map[string]any{
		"current_status":    current,
		"valid_next_states": statemachine.ValidTransitionsFrom(current),
	})
}

// transition moves order to status and appends history. The update is
// conditional on the status the order was read with.
func transition(tx *gorm.DB, order *models.Order, to models.OrderStatus, by uint, note string, extra map[string]interface{}) error {
	from := order.Status
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(order).Where("status = ?", from).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errConcurrentUpdate
	}
	order.Status = to
	return appendHistory(tx, order.ID, from, to, by, note)
}

func appendHistory(tx *gorm.DB, orderID uint, from, to models.OrderStatus, by uint, note string) error {
	return tx.Create(&models.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  by,
		Note:       note,
	}).Error
}

// openDelivery returns the order's in-progress delivery, or nil.
func openDelivery(tx *gorm.DB, orderID uint) (*models.Delivery, error) {
	var d models.Delivery
	res := tx.Where("order_id = ? AND status IN ?", orderID, openDeliveryStatuses).Limit(1).Find(&d)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &d, nil
}

// newDelivery prices and positions a delivery of order for courier p.
func newDelivery(tx *gorm.DB, order *models.Order, p *models.DeliveryPersonnel, status models.DeliveryStatus, now time.Time) (*models.Delivery, error) {
	var restaurant models.Restaurant
	if err := tx.Select("id", "latitude", "longitude").First(&restaurant, order.RestaurantID).Error; err != nil {
		return nil, err
	}

	d := &models.Delivery{
		OrderID:     order.ID,
		PersonnelID: p.ID,
		Status:      status,
		PickupLat:   restaurant.Latitude,
		PickupLng:   restaurant.Longitude,
		DropLat:     order.DeliveryLat,
		DropLng:     order.DeliveryLng,
		Fee:         order.DeliveryCharge,
		AssignedAt:  now,
	}
	if d.PickupLat != nil && d.PickupLng != nil && d.DropLat != nil && d.DropLng != nil {
		d.DistanceKM = pricing.Round2(pricing.DistanceKM(*d.PickupLat, *d.PickupLng, *d.DropLat, *d.DropLng))
	}
	if status == models.DeliveryPickedUp {
		d.PickedUpAt = &now
	}
	if err := tx.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// settleDelivery closes or advances d. Closing releases the courier; a
// completed delivery also credits their totals. Finished deliveries yield an
// analytics event.
func settleDelivery(tx *gorm.DB, d *models.Delivery, order *models.Order, to models.DeliveryStatus, reason string, now time.Time) (*models.DeliveryEvent, error) {
	if err := statemachine.CanTransitionDelivery(d.Status, to); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": to}
	switch to {
	case models.DeliveryPickedUp:
		updates["picked_up_at"] = now
	case models.DeliveryDelivered:
		updates["delivered_at"] = now
	case models.DeliveryFailed, models.DeliveryCancelled:
		updates["failure_reason"] = reason
	}
	res := tx.Model(d).Where("status = ?", d.Status).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errConcurrentUpdate
	}
	d.Status = to

	if to.Open() {
		return nil, nil
	}

	personnel := map[string]interface{}{"availability": models.AvailabilityOnline}
	if to == models.DeliveryDelivered {
		personnel["total_deliveries"] = gorm.Expr("total_deliveries + 1")
		personnel["total_earnings"] = gorm.Expr("total_earnings + ?", d.Fee)
	}
	if err := tx.Model(&models.DeliveryPersonnel{}).Where("id = ?", d.PersonnelID).Updates(personnel).Error; err != nil {
		return nil, err
	}
	if to == models.DeliveryCancelled {
		return nil, nil
	}

	event := &models.DeliveryEvent{
		DeliveryID:       d.ID,
		OrderID:          order.ID,
		PersonnelID:      d.PersonnelID,
		RestaurantID:     order.RestaurantID,
		ZoneID:           order.ZoneID,
		Type:             models.EventDeliveryFailed,
		DistanceKM:       d.DistanceKM,
		EstimatedMinutes: order.EstimatedTime,
		RecordedAt:       now,
	}
	if to == models.DeliveryDelivered {
		event.Type = models.EventDeliveryCompleted
		event.DurationMinutes = pricing.Round2(now.Sub(order.CreatedAt).Minutes())
		event.OnTime = event.DurationMinutes <= float64(order.EstimatedTime)
		event.Earnings = d.Fee
	}
	return event, nil
}

// releaseOpenDelivery closes the order's open delivery when the order itself
// reaches a terminal status outside the courier flow.
func releaseOpenDelivery(tx *gorm.DB, order *models.Order, to models.OrderStatus, reason string, now time.Time, res *flowResult) error {
	d, err := openDelivery(tx, order.ID)
	if err != nil || d == nil {
		return err
	}

	if to == models.StatusDelivered {
		return completeDelivery(tx, d, order, now, res)
	}

	var target models.DeliveryStatus
	switch {
	case d.Status == models.DeliveryAssigned && to == models.StatusCancelled:
		target = models.DeliveryCancelled
	case to == models.StatusCancelled, to == models.StatusFailed:
		target = models.DeliveryFailed
	default:
		return nil
	}

	event, err := settleDelivery(tx, d, order, target, reason, now)
	if err != nil {
		return err
	}
	res.analytics = event
	res.personnelID = d.PersonnelID
	return nil
}

// completeDelivery walks d through the remaining handoff steps up to
// delivered.
func completeDelivery(tx *gorm.DB, d *models.Delivery, order *models.Order, now time.Time, res *flowResult) error {
	steps := []models.DeliveryStatus{models.DeliveryPickedUp, models.DeliveryInTransit, models.DeliveryDelivered}
	for _, step := range steps {
		if statemachine.CanTransitionDelivery(d.Status, step) != nil {
			continue
		}
		event, err := settleDelivery(tx, d, order, step, "", now)
		if err != nil {
			return err
		}
		res.analytics = event
	}
	res.personnelID = d.PersonnelID
	return nil
}

// finish runs the post-commit side effects of a flow. None of them can fail
// the request.
func (h *Handler) finish(c *gin.Context, res *flowResult) {
	ctx := c.Request.Context()
	log := h.log(c)
	order := res.order

	if res.statusMoved {
		res.events = append(res.events, events.NewOrderEvent(order.ID, events.ActionStatusChanged, nil,
			"from", string(res.from),
			"to", string(order.Status),
			"restaurant_id", strconv.FormatUint(uint64(order.RestaurantID), 10),
		))
		if err := h.Notifier.OrderStatusChanged(ctx, jobs.OrderStatusPayload{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			From:       string(res.from),
			To:         string(order.Status),
		}); err != nil {
			log.Warn().Err(err).Uint("order_id", order.ID).Msg("status notification not enqueued")
		}
	}

	if res.assigned != nil {
		if err := h.Notifier.DeliveryAssigned(ctx, *res.assigned); err != nil {
			log.Warn().Err(err).Uint("order_id", order.ID).Msg("assignment notification not enqueued")
		}
	}

	if len(res.events) > 0 {
		if err := h.Events.Publish(ctx, res.events...); err != nil {
			log.Warn().Err(err).Uint("order_id", order.ID).Msg("order events not published")
		}
	}

	if res.analytics != nil {
		if err := h.Analytics.Record(ctx, res.analytics); err != nil {
			log.Warn().Err(err).Uint("order_id", order.ID).Msg("delivery analytics not recorded")
		}
	}

	keys := []string{cache.AdminDashboardKey(), cache.RestaurantDashboardKey(order.RestaurantID)}
	if res.personnelID != 0 {
		keys = append(keys, cache.PersonnelDashboardKey(res.personnelID))
	}
	h.invalidate(context.WithoutCancel(ctx), keys...)
}

// changeStatus validates and applies a status change requested by actor,
// releasing any open delivery when the order ends.
func (h *Handler) changeStatus(c *gin.Context, order *models.Order, to models.OrderStatus, actor statemachine.Actor, by uint, note string) (*flowResult, error) {
	res := &flowResult{order: order, from: order.Status, statusMoved: true}
	if err := statemachine.CanTransition(order.Status, to, actor); err != nil {
		return nil, invalidTransition(err, order.Status)
	}

	now := time.Now().UTC()
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		extra := map[string]interface{}{}
		if to.Terminal() && to != models.StatusDelivered {
			d, err := openDelivery(tx, order.ID)
			if err != nil {
				return err
			}
			if d != nil && d.Status == models.DeliveryAssigned {
				extra["driver_id"] = nil
			}
		}
		if to.Terminal() {
			reason := note
			if reason == "" {
				reason = fmt.Sprintf("order %s by %s", to, actor)
			}
			if err := releaseOpenDelivery(tx, order, to, reason, now, res); err != nil {
				return err
			}
		}
		return transition(tx, order, to, by, note, extra)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
