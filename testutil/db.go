// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"food-marketplace-api/config"
	"food-marketplace-api/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database. It is pinned to a
// single connection, so code under test must use the transaction handle
// inside a transaction.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// Fixture creation helpers. Each fails the test on error.

func CreateUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{Name: "Test " + string(role), Email: email, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateRestaurant(t *testing.T, db *gorm.DB, ownerID uint, zoneID *uint) *models.Restaurant {
	t.Helper()
	lat, lng := 12.9716, 77.5946
	r := &models.Restaurant{
		OwnerID:    ownerID,
		ZoneID:     zoneID,
		Name:       "Spice Route",
		Cuisine:    "Indian",
		Address:    "1 MG Road",
		Latitude:   &lat,
		Longitude:  &lng,
		IsOpen:     true,
		IsVerified: true,
		IsActive:   true,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func CreateMenuItem(t *testing.T, db *gorm.DB, restaurantID uint, name string, price float64) *models.MenuItem {
	t.Helper()
	m := &models.MenuItem{RestaurantID: restaurantID, Name: name, Price: price, Category: "Mains", IsAvailable: true}
	require.NoError(t, db.Create(m).Error)
	return m
}

func CreateZone(t *testing.T, db *gorm.DB, name string) *models.Zone {
	t.Helper()
	z := &models.Zone{
		Name:        name,
		City:        "Bengaluru",
		CenterLat:   12.9716,
		CenterLng:   77.5946,
		RadiusKM:    10,
		BaseCharge:  20,
		PerKMCharge: 5,
		IsActive:    true,
	}
	require.NoError(t, db.Create(z).Error)
	return z
}

// CreatePersonnel creates a delivery user with an active, verified, online profile.
func CreatePersonnel(t *testing.T, db *gorm.DB, email string, zoneID *uint) *models.DeliveryPersonnel {
	t.Helper()
	u := CreateUser(t, db, email, models.RoleDelivery)
	p := &models.DeliveryPersonnel{
		UserID:       u.ID,
		ZoneID:       zoneID,
		VehicleType:  models.VehicleBike,
		Status:       models.PersonnelActive,
		Availability: models.AvailabilityOnline,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(p).Error)
	p.User = *u
	return p
}

func CreateOrder(t *testing.T, db *gorm.DB, customerID, restaurantID uint, status models.OrderStatus, subtotal, charge float64) *models.Order {
	t.Helper()
	o := &models.Order{
		CustomerID:      customerID,
		RestaurantID:    restaurantID,
		Status:          status,
		Subtotal:        subtotal,
		DeliveryCharge:  charge,
		DeliveryAddress: "42 Residency Road",
		EstimatedTime:   40,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}
