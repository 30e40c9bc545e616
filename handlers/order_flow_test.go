package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"food-marketplace-api/events"
	"food-marketplace-api/models"
	"food-marketplace-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, hs *harness, m *marketplace, quantity int) uint {
	t.Helper()
	body := requireStatus(t, hs.do(http.MethodPost, "/api/customer/orders", map[string]any{
		"restaurant_id":    m.restaurant.ID,
		"delivery_address": "7 Brigade Road",
		"delivery_lat":     12.98,
		"delivery_lng":     77.60,
		"items":            []map[string]any{{"menu_item_id": m.dish.ID, "quantity": quantity}},
	}, m.customer), http.StatusCreated)
	order := body["order"].(map[string]any)
	return uint(order["id"].(float64))
}

func orderPath(id uint, pattern string) string {
	return "/api/" + fmt.Sprintf(pattern, id)
}

func advanceToReady(t *testing.T, hs *harness, m *marketplace, id uint) {
	t.Helper()
	for _, status := range []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing, models.StatusReadyForPickup} {
		requireStatus(t, hs.do(http.MethodPut, orderPath(id, "restaurant/orders/%d/status"),
			map[string]any{"status": status}, m.owner), http.StatusOK)
	}
}

func loadOrder(t *testing.T, hs *harness, id uint) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, hs.db.First(&o, id).Error)
	return o
}

func loadPersonnel(t *testing.T, hs *harness, id uint) models.DeliveryPersonnel {
	t.Helper()
	var p models.DeliveryPersonnel
	require.NoError(t, hs.db.First(&p, id).Error)
	return p
}

func TestPlaceOrderPricesFromMenu(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)

	id := placeOrder(t, hs, m, 2)

	o := loadOrder(t, hs, id)
	assert.Equal(t, models.StatusPlaced, o.Status)
	assert.InDelta(t, 200, o.Subtotal, 0.001)
	assert.Greater(t, o.DeliveryCharge, 20.0)
	assert.InDelta(t, o.Subtotal+o.DeliveryCharge, o.TotalPrice, 0.001)
	require.NotNil(t, o.ZoneID)
	assert.Equal(t, m.zone.ID, *o.ZoneID)

	require.Len(t, hs.notifier.orders, 1)
	assert.Equal(t, m.owner.ID, hs.notifier.orders[0].OwnerID)
	assert.Equal(t, []string{events.ActionCreated}, hs.events.actions())
}

func TestPlaceOrderRejectsForeignAndUnavailableItems(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	other := testutil.CreateRestaurant(t, hs.db, testutil.CreateUser(t, hs.db, "other@example.com", models.RoleRestaurant).ID, nil)
	foreign := testutil.CreateMenuItem(t, hs.db, other.ID, "Burger", 150)

	order := func(itemID uint) map[string]any {
		return map[string]any{
			"restaurant_id":    m.restaurant.ID,
			"delivery_address": "7 Brigade Road",
			"items":            []map[string]any{{"menu_item_id": itemID, "quantity": 1}},
		}
	}
	requireStatus(t, hs.do(http.MethodPost, "/api/customer/orders", order(foreign.ID), m.customer), http.StatusBadRequest)

	require.NoError(t, hs.db.Model(m.dish).Update("is_available", false).Error)
	requireStatus(t, hs.do(http.MethodPost, "/api/customer/orders", order(m.dish.ID), m.customer), http.StatusUnprocessableEntity)

	requireStatus(t, hs.do(http.MethodPost, "/api/customer/orders", map[string]any{
		"restaurant_id": m.restaurant.ID, "delivery_address": "x", "items": []any{},
	}, m.customer), http.StatusBadRequest)
}

func TestPlaceOrderOutsideEveryZone(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)

	body := requireStatus(t, hs.do(http.MethodPost, "/api/customer/orders", map[string]any{
		"restaurant_id":    m.restaurant.ID,
		"delivery_address": "Far away",
		"delivery_lat":     28.61,
		"delivery_lng":     77.20,
		"items":            []map[string]any{{"menu_item_id": m.dish.ID, "quantity": 1}},
	}, m.customer), http.StatusUnprocessableEntity)
	assert.Contains(t, body["message"], "outside every active delivery zone")
}

func TestFullDeliveryLifecycle(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	id := placeOrder(t, hs, m, 2)

	advanceToReady(t, hs, m, id)

	body := requireStatus(t, hs.do(http.MethodGet, "/api/delivery/orders/available", nil, m.courierUser()), http.StatusOK)
	require.Len(t, body["orders"], 1)

	requireStatus(t, hs.do(http.MethodPut, orderPath(id, "delivery/orders/%d/pickup"), nil, m.courierUser()), http.StatusOK)
	o := loadOrder(t, hs, id)
	assert.Equal(t, models.StatusPickedUp, o.Status)
	require.NotNil(t, o.DriverID)
	assert.Equal(t, m.courier.UserID, *o.DriverID)
	assert.Equal(t, models.AvailabilityBusy, loadPersonnel(t, hs, m.courier.ID).Availability)

	body = requireStatus(t, hs.do(http.MethodGet, "/api/delivery/orders/available", nil, m.courierUser()), http.StatusOK)
	assert.Empty(t, body["orders"])

	requireStatus(t, hs.do(http.MethodPut, orderPath(id, "delivery/orders/%d/deliver"), nil, m.courierUser()),
		http.StatusUnprocessableEntity)
	assert.Equal(t, models.StatusPickedUp, loadOrder(t, hs, id).Status)

	requireStatus(t, hs.do(http.MethodPut, orderPath(id, "delivery/orders/%d/in-transit"), nil, m.courierUser()), http.StatusOK)
	assert.Equal(t, models.StatusPickedUp, loadOrder(t, hs, id).Status)

	requireStatus(t, hs.do(http.MethodPut, orderPath(id, "delivery/orders/%d/deliver"), nil, m.courierUser()), http.StatusOK)
	o = loadOrder(t, hs, id)
	assert.Equal(t, models.StatusDelivered, o.Status)

	p := loadPersonnel(t, hs, m.courier.ID)
	assert.Equal(t, models.AvailabilityOnline, p.Availability)
	assert.Equal(t, 1, p.TotalDeliveries)
	assert.InDelta(t, o.DeliveryCharge, p.TotalEarnings, 0.001)

	var d models.Delivery
	require.NoError(t, hs.db.Where("order_id = ?", id).First(&d).Error)
	assert.Equal(t, models.DeliveryDelivered, d.Status)
	assert.NotNil(t, d.PickedUpAt)
	assert.NotNil(t, d.DeliveredAt)

	var analyticsEvents []models.DeliveryEvent
	require.NoError(t, hs.db.Find(&analyticsEvents).Error)
	require.Len(t, analyticsEvents, 1)
	assert.Equal(t, models.EventDeliveryCompleted, analyticsEvents[0].Type)
	assert.True(t, analyticsEvents[0].OnTime)

	var history int64
	require.NoError(t, hs.db.Model(&models.OrderStatusHistory{}).Where("order_id = ?", id).Count(&history).Error)
	assert.EqualValues(t, 6, history)

	assert.Contains(t, hs.events.actions(), events.ActionAssigned)
	assert.Len(t, hs.notifier.statuses, 5)

	body = requireStatus(t, hs.do(http.MethodGet, orderPath(id, "customer/orders/%d"), nil, m.customer), http.StatusOK)
	assert.Empty(t, body["valid_next_states"])
}

func TestRestaurantRejectsInvalidTransition(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	id := placeOrder(t, hs, m, 1)

	body := requireStatus(t, hs.do(http.MethodPut, orderPath(id, "restaurant/orders/%d/status"),
		map[string]any{"status": models.StatusPickedUp}, m.owner), http.StatusUnprocessableEntity)
	details := body["details"].(map[string]any)
	assert.Equal(t, string(models.StatusPlaced), details["current_status"])
	assert.ElementsMatch(t, []any{"CONFIRMED", "CANCELLED"}, details["valid_next_states"])

	stranger := testutil.CreateUser(t, hs.db, "stranger@example.com", models.RoleRestaurant)
	testutil.CreateRestaurant(t, hs.db, stranger.ID, nil)
	requireStatus(t, hs.do(http.MethodPut, orderPath(id, "restaurant/orders/%d/status"),
		map[string]any{"status": models.StatusConfirmed}, stranger), http.StatusForbidden)
}

func TestCustomerCancellation(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	id := placeOrder(t, hs, m, 1)

	other := testutil.CreateUser(t, hs.db, "other@example.com", models.RoleCustomer)
	requireStatus(t, hs.do(http.MethodPut, orderPath(id, "customer/orders/%d/cancel"), nil, other), http.StatusForbidden)

	requireStatus(t, hs.do(http.MethodPut, orderPath(id, "customer/orders/%d/cancel"),
		map[string]any{"reason": "changed my mind"}, m.customer), http.StatusOK)
	assert.Equal(t, models.StatusCancelled, loadOrder(t, hs, id).Status)

	requireStatus(t, hs.do(http.MethodPut, orderPath(id, "customer/orders/%d/cancel"), nil, m.customer), http.StatusUnprocessableEntity)
}

func TestCustomerCannotCancelWhilePreparing(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	o := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusPreparing, 100, 20)

	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "customer/orders/%d/cancel"), nil, m.customer), http.StatusUnprocessableEntity)
}

func TestFailBeforePickupReleasesOrder(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	o := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusReadyForPickup, 100, 20)

	requireStatus(t, hs.do(http.MethodPost, orderPath(o.ID, "admin/orders/%d/assign"),
		map[string]any{"personnel_id": m.courier.ID}, m.admin), http.StatusOK)
	assert.Equal(t, models.AvailabilityBusy, loadPersonnel(t, hs, m.courier.ID).Availability)
	require.Len(t, hs.notifier.assigned, 1)

	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "delivery/orders/%d/fail"), map[string]any{}, m.courierUser()), http.StatusBadRequest)
	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "delivery/orders/%d/fail"),
		map[string]any{"reason": "bike broke down"}, m.courierUser()), http.StatusOK)

	got := loadOrder(t, hs, o.ID)
	assert.Equal(t, models.StatusReadyForPickup, got.Status)
	assert.Nil(t, got.DriverID)
	assert.Equal(t, models.AvailabilityOnline, loadPersonnel(t, hs, m.courier.ID).Availability)

	var failed []models.DeliveryEvent
	require.NoError(t, hs.db.Where("type = ?", models.EventDeliveryFailed).Find(&failed).Error)
	assert.Len(t, failed, 1)
}

func TestFailAfterPickupFailsOrder(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	o := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusReadyForPickup, 100, 20)

	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "delivery/orders/%d/pickup"), nil, m.courierUser()), http.StatusOK)
	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "delivery/orders/%d/fail"),
		map[string]any{"reason": "customer unreachable"}, m.courierUser()), http.StatusOK)

	assert.Equal(t, models.StatusFailed, loadOrder(t, hs, o.ID).Status)
	p := loadPersonnel(t, hs, m.courier.ID)
	assert.Equal(t, models.AvailabilityOnline, p.Availability)
	assert.Equal(t, 0, p.TotalDeliveries)
}

func TestSecondCourierCannotTakeClaimedOrder(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	rival := testutil.CreatePersonnel(t, hs.db, "rival@example.com", &m.zone.ID)
	o := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusReadyForPickup, 100, 20)

	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "delivery/orders/%d/pickup"), nil, m.courierUser()), http.StatusOK)
	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "delivery/orders/%d/pickup"), nil, &rival.User), http.StatusConflict)
	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "delivery/orders/%d/deliver"), nil, &rival.User), http.StatusForbidden)
}

func TestAdminAssignment(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	o := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusPreparing, 100, 20)
	second := testutil.CreatePersonnel(t, hs.db, "second@example.com", &m.zone.ID)

	requireStatus(t, hs.do(http.MethodPost, orderPath(o.ID, "admin/orders/%d/assign"),
		map[string]any{"personnel_id": m.courier.ID}, m.admin), http.StatusOK)
	got := loadOrder(t, hs, o.ID)
	require.NotNil(t, got.DriverID)
	assert.Equal(t, m.courier.UserID, *got.DriverID)
	assert.Equal(t, models.StatusPreparing, got.Status)

	requireStatus(t, hs.do(http.MethodPost, orderPath(o.ID, "admin/orders/%d/assign"),
		map[string]any{"personnel_id": second.ID}, m.admin), http.StatusConflict)

	placed := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusPlaced, 100, 20)
	requireStatus(t, hs.do(http.MethodPost, orderPath(placed.ID, "admin/orders/%d/assign"),
		map[string]any{"personnel_id": second.ID}, m.admin), http.StatusUnprocessableEntity)

	require.NoError(t, hs.db.Model(second).Update("availability", models.AvailabilityOffline).Error)
	confirmed := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusConfirmed, 100, 20)
	body := requireStatus(t, hs.do(http.MethodPost, orderPath(confirmed.ID, "admin/orders/%d/assign"),
		map[string]any{"personnel_id": second.ID}, m.admin), http.StatusUnprocessableEntity)
	assert.Equal(t, "offline", body["details"].(map[string]any)["availability"])
}

func TestAdminForceStatusCancelsAssignedDelivery(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	o := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusPreparing, 100, 20)

	requireStatus(t, hs.do(http.MethodPost, orderPath(o.ID, "admin/orders/%d/assign"),
		map[string]any{"personnel_id": m.courier.ID}, m.admin), http.StatusOK)

	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "admin/orders/%d/status"),
		map[string]any{"status": models.StatusCancelled}, m.admin), http.StatusBadRequest)
	body := requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "admin/orders/%d/status"),
		map[string]any{"status": models.StatusCancelled, "reason": "kitchen closed"}, m.admin), http.StatusOK)
	assert.Equal(t, string(models.StatusCancelled), body["new_status"])

	got := loadOrder(t, hs, o.ID)
	assert.Nil(t, got.DriverID)
	var d models.Delivery
	require.NoError(t, hs.db.Where("order_id = ?", o.ID).First(&d).Error)
	assert.Equal(t, models.DeliveryCancelled, d.Status)
	assert.Equal(t, models.AvailabilityOnline, loadPersonnel(t, hs, m.courier.ID).Availability)

	var last models.OrderStatusHistory
	require.NoError(t, hs.db.Where("order_id = ?", o.ID).Order("id desc").First(&last).Error)
	assert.Equal(t, "[ADMIN OVERRIDE] kitchen closed", last.Note)
	assert.Equal(t, m.admin.ID, last.ChangedBy)

	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "admin/orders/%d/status"),
		map[string]any{"status": models.StatusPlaced, "reason": "reopen"}, m.admin), http.StatusUnprocessableEntity)
}

func TestAdminForceDeliveredCompletesAssignedDelivery(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	o := testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusReadyForPickup, 100, 20)

	requireStatus(t, hs.do(http.MethodPost, orderPath(o.ID, "admin/orders/%d/assign"),
		map[string]any{"personnel_id": m.courier.ID}, m.admin), http.StatusOK)
	requireStatus(t, hs.do(http.MethodPut, orderPath(o.ID, "admin/orders/%d/status"),
		map[string]any{"status": models.StatusDelivered, "reason": "customer confirmed by phone"}, m.admin), http.StatusOK)

	assert.Equal(t, models.StatusDelivered, loadOrder(t, hs, o.ID).Status)
	var d models.Delivery
	require.NoError(t, hs.db.Where("order_id = ?", o.ID).First(&d).Error)
	assert.Equal(t, models.DeliveryDelivered, d.Status)
	assert.NotNil(t, d.PickedUpAt)
	assert.NotNil(t, d.DeliveredAt)

	p := loadPersonnel(t, hs, m.courier.ID)
	assert.Equal(t, models.AvailabilityOnline, p.Availability)
	assert.Equal(t, 1, p.TotalDeliveries)
}

func TestAdminOrderListing(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)
	testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusPlaced, 100, 20)
	testutil.CreateOrder(t, hs.db, m.customer.ID, m.restaurant.ID, models.StatusDelivered, 250, 30)

	body := requireStatus(t, hs.do(http.MethodGet, "/api/admin/orders", nil, m.admin), http.StatusOK)
	require.Len(t, body["orders"], 2)
	summary := body["order_summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["PLACED"])
	assert.EqualValues(t, 1, summary["DELIVERED"])
	assert.EqualValues(t, 0, summary["CANCELLED"])
	assert.EqualValues(t, 280, body["delivered_revenue"])

	body = requireStatus(t, hs.do(http.MethodGet, "/api/admin/orders?status=DELIVERED", nil, m.admin), http.StatusOK)
	require.Len(t, body["orders"], 1)
	assert.EqualValues(t, 1, body["pagination"].(map[string]any)["total"])

	requireStatus(t, hs.do(http.MethodGet, "/api/admin/orders?from=2026-13-01", nil, m.admin), http.StatusBadRequest)
}
