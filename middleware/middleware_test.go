package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/models"
	"food-marketplace-api/testutil"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.Nop()), Recovery(), ErrorHandler())
	r.NoRoute(NoRoute)
	return r
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	r := newEngine()
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec, _ := serve(r, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", rec.Body.String())

	rec, _ = serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestErrorHandlerRendersHTTPErrors(t *testing.T) {
	r := newEngine()
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(apperr.Conflict("taken").WithDetails(map[string]any{"field": "email"}))
	})
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("db password leaked")) })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	rec, body := serve(r, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "CONFLICT", body["code"])
	assert.Equal(t, "taken", body["message"])
	assert.Equal(t, "email", body["details"].(map[string]any)["field"])

	rec, body = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", body["message"])

	rec, body = serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])

	rec, body = serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", body["message"])
}

func TestAuthRequiredAndRoles(t *testing.T) {
	db := testutil.NewDB(t)
	tokens := auth.NewTokenManager("middleware-test-secret-0123456789", time.Hour)
	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	customer := testutil.CreateUser(t, db, "customer@example.com", models.RoleCustomer)

	r := newEngine()
	r.GET("/admin", AuthRequired(tokens, db), RoleRequired(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})

	request := func(user *models.User, raw string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if user != nil {
			token, _, err := tokens.Generate(user)
			require.NoError(t, err)
			raw = "Bearer " + token
		}
		if raw != "" {
			req.Header.Set("Authorization", raw)
		}
		return req
	}

	rec, _ := serve(r, request(nil, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := serve(r, request(nil, "Bearer not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", body["message"])

	rec, body = serve(r, request(customer, ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied. Required role(s): admin, superadmin", body["message"])

	rec, body = serve(r, request(admin, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, admin.ID, body["user_id"])
	assert.Equal(t, "admin", body["role"])

	require.NoError(t, db.Delete(&models.User{}, admin.ID).Error)
	rec, body = serve(r, request(admin, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Account no longer exists", body["message"])
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec, _ := serve(r, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec, _ = serve(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
