package handlers_test

import (
	"net/http"
	"testing"

	"food-marketplace-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "Asha",
		"email":    "  Asha@Example.com ",
		"password": "secret123",
		"role":     "customer",
	}, nil)
	body := requireStatus(t, rec, http.StatusCreated)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "asha@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	require.Len(t, hs.notifier.welcomes, 1)
	assert.Equal(t, "customer", hs.notifier.welcomes[0].Role)

	rec = hs.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email": "asha@example.com", "password": "wrong-pass",
	}, nil)
	body = requireStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid email or password", body["message"])

	rec = hs.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email": "ASHA@example.com", "password": "secret123",
	}, nil)
	body = requireStatus(t, rec, http.StatusOK)
	assert.NotEmpty(t, body["token"])

	var stored models.User
	require.NoError(t, hs.db.Where("email = ?", "asha@example.com").First(&stored).Error)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	hs := newHarness(t)
	payload := map[string]any{"name": "A", "email": "dup@example.com", "password": "secret123", "role": "customer"}

	requireStatus(t, hs.do(http.MethodPost, "/api/auth/register", payload, nil), http.StatusCreated)
	body := requireStatus(t, hs.do(http.MethodPost, "/api/auth/register", payload, nil), http.StatusConflict)
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestRegisterValidatesNormalizedEmail(t *testing.T) {
	hs := newHarness(t)
	for _, email := range []string{"not-an-email", "   ", " two@words here.com "} {
		body := requireStatus(t, hs.do(http.MethodPost, "/api/auth/register", map[string]any{
			"name": "Ravi", "email": email, "password": "secret123", "role": "customer",
		}, nil), http.StatusBadRequest)
		errs := body["errors"].([]any)
		require.Len(t, errs, 1, email)
		assert.Equal(t, "email", errs[0].(map[string]any)["field"])
	}

	requireStatus(t, hs.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Ravi", "email": "\tRavi@Example.com\n", "password": "secret123", "role": "customer",
	}, nil), http.StatusCreated)
	requireStatus(t, hs.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email": " ravi@example.com ", "password": "secret123",
	}, nil), http.StatusOK)
}

func TestRegisterRejectsStaffRoles(t *testing.T) {
	hs := newHarness(t)
	body := requireStatus(t, hs.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Eve", "email": "eve@example.com", "password": "secret123", "role": "admin",
	}, nil), http.StatusBadRequest)

	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "role", errs[0].(map[string]any)["field"])
}

func TestRegisterCourierCreatesPendingProfile(t *testing.T) {
	hs := newHarness(t)

	requireStatus(t, hs.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Ravi", "email": "ravi@example.com", "password": "secret123", "role": "delivery",
	}, nil), http.StatusBadRequest)

	body := requireStatus(t, hs.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Ravi", "email": "ravi@example.com", "password": "secret123", "role": "delivery",
		"vehicle_type": "scooter", "vehicle_number": "KA01AB1234",
	}, nil), http.StatusCreated)

	userID := uint(body["user"].(map[string]any)["id"].(float64))
	var p models.DeliveryPersonnel
	require.NoError(t, hs.db.Where("user_id = ?", userID).First(&p).Error)
	assert.Equal(t, models.PersonnelPending, p.Status)
	assert.Equal(t, models.AvailabilityOffline, p.Availability)
	assert.False(t, p.IsVerified)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)

	body := requireStatus(t, hs.do(http.MethodGet, "/api/profile", nil, nil), http.StatusUnauthorized)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	requireStatus(t, hs.do(http.MethodGet, "/api/profile", nil, m.customer), http.StatusOK)
	requireStatus(t, hs.do(http.MethodGet, "/api/admin/orders", nil, m.customer), http.StatusForbidden)
	requireStatus(t, hs.do(http.MethodGet, "/api/superadmin/admins", nil, m.admin), http.StatusForbidden)
}

func TestDeactivatedAccountIsRejected(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)

	require.NoError(t, hs.db.Model(m.customer).Update("is_active", false).Error)
	body := requireStatus(t, hs.do(http.MethodGet, "/api/profile", nil, m.customer), http.StatusUnauthorized)
	assert.Equal(t, "Account is deactivated", body["message"])
}

func TestChangePasswordMustDiffer(t *testing.T) {
	hs := newHarness(t)
	m := seedMarketplace(t, hs.db)

	body := requireStatus(t, hs.do(http.MethodPut, "/api/profile/password", map[string]any{
		"old_password": "same-pass", "new_password": "same-pass",
	}, m.customer), http.StatusBadRequest)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "must differ from old_password", errs[0].(map[string]any)["error"])
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	hs := newHarness(t)
	body := requireStatus(t, hs.do(http.MethodGet, "/api/nope", nil, nil), http.StatusNotFound)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Route not found", body["message"])
}
