package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"food-marketplace-api/statemachine"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"http error passthrough", Forbidden("nope"), http.StatusForbidden},
		{"wrapped http error", fmt.Errorf("ctx: %w", NotFound("zone not found")), http.StatusNotFound},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), http.StatusConflict},
		{"invalid transition", fmt.Errorf("%w: x", statemachine.ErrInvalidTransition), http.StatusUnprocessableEntity},
		{"expired token", fmt.Errorf("parse: %w", jwt.ErrTokenExpired), http.StatusUnauthorized},
		{"malformed token", jwt.ErrTokenMalformed, http.StatusUnauthorized},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate(tc.err)
			require.NotNil(t, got)
			assert.Equal(t, tc.status, got.Status)
		})
	}
}

func TestTranslateHidesInternalCause(t *testing.T) {
	got := Translate(errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal Server Error", got.Message)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", got.Code)
}

func TestDuplicateMessageNamesColumn(t *testing.T) {
	got := Translate(errors.New("UNIQUE constraint failed: zones.name"))
	assert.Equal(t, "A record with this name already exists", got.Message)
}

func TestTranslateValidationErrors(t *testing.T) {
	type payload struct {
		DeliveryAddress string `validate:"required"`
		Quantity        int    `validate:"min=1"`
		Email           string `validate:"email"`
	}
	err := validator.New().Struct(payload{Quantity: 0, Email: "nope"})
	require.Error(t, err)

	got := Translate(err)
	assert.Equal(t, http.StatusBadRequest, got.Status)
	require.Len(t, got.Errors, 3)
	assert.Equal(t, FieldError{Field: "delivery_address", Error: "is required"}, got.Errors[0])
	assert.Equal(t, FieldError{Field: "quantity", Error: "must be at least 1"}, got.Errors[1])
	assert.Equal(t, "must be a valid email address", got.Errors[2].Error)
}

func TestTranslateNefield(t *testing.T) {
	type payload struct {
		OldPassword string `validate:"required"`
		NewPassword string `validate:"required,nefield=OldPassword"`
	}
	err := validator.New().Struct(payload{OldPassword: "secret1", NewPassword: "secret1"})
	require.Error(t, err)

	got := Translate(err)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, FieldError{Field: "new_password", Error: "must differ from old_password"}, got.Errors[0])
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "menu_item_id", snakeCase("MenuItemID"))
	assert.Equal(t, "radius_km", snakeCase("RadiusKM"))
	assert.Equal(t, "name", snakeCase("Name"))
}
