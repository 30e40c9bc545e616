package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"food-marketplace-api/analytics"
	"food-marketplace-api/auth"
	"food-marketplace-api/cache"
	"food-marketplace-api/config"
	"food-marketplace-api/events"
	"food-marketplace-api/handlers"
	"food-marketplace-api/jobs"
	"food-marketplace-api/models"
	"food-marketplace-api/routes"
	"food-marketplace-api/testutil"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []jobs.OrderStatusPayload
	orders   []jobs.NewOrderPayload
	assigned []jobs.DeliveryAssignedPayload
	welcomes []jobs.WelcomePayload
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, p jobs.OrderStatusPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, p)
	return nil
}

func (n *recordingNotifier) NewOrder(_ context.Context, p jobs.NewOrderPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, p)
	return nil
}

func (n *recordingNotifier) DeliveryAssigned(_ context.Context, p jobs.DeliveryAssignedPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, p)
	return nil
}

func (n *recordingNotifier) Welcome(_ context.Context, p jobs.WelcomePayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, p)
	return nil
}

type harness struct {
	t        *testing.T
	db       *gorm.DB
	tokens   *auth.TokenManager
	events   *recordingPublisher
	notifier *recordingNotifier
	router   *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := config.Default()
	cfg.App.Env = "test"
	cfg.Auth.BcryptCost = bcrypt.MinCost

	tokens := auth.NewTokenManager("handler-test-secret-0123456789", time.Hour)
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{}
	h := handlers.New(cfg, db, tokens, cache.Noop{}, notifier, pub, analytics.NewGormStore(db), zerolog.Nop())

	return &harness{t: t, db: db, tokens: tokens, events: pub, notifier: notifier, router: routes.NewRouter(h)}
}

// do sends a JSON request, authenticated as user when it is not nil.
func (hs *harness) do(method, path string, body any, user *models.User) *httptest.ResponseRecorder {
	hs.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(hs.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, _, err := hs.tokens.Generate(user)
		require.NoError(hs.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// requireStatus fails with the response body for context.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	return decode(t, rec)
}

// marketplace is a zone with one restaurant, its owner, a dish, a customer
// and an online courier.
type marketplace struct {
	zone       *models.Zone
	owner      *models.User
	restaurant *models.Restaurant
	dish       *models.MenuItem
	customer   *models.User
	courier    *models.DeliveryPersonnel
	admin      *models.User
}

func seedMarketplace(t *testing.T, db *gorm.DB) *marketplace {
	t.Helper()
	m := &marketplace{}
	m.zone = testutil.CreateZone(t, db, "Central")
	m.owner = testutil.CreateUser(t, db, "owner@example.com", models.RoleRestaurant)
	m.restaurant = testutil.CreateRestaurant(t, db, m.owner.ID, &m.zone.ID)
	m.dish = testutil.CreateMenuItem(t, db, m.restaurant.ID, "Masala Dosa", 100)
	m.customer = testutil.CreateUser(t, db, "customer@example.com", models.RoleCustomer)
	m.courier = testutil.CreatePersonnel(t, db, "courier@example.com", &m.zone.ID)
	m.admin = testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	return m
}

func (m *marketplace) courierUser() *models.User {
	return &m.courier.User
}
