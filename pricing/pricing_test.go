package pricing

import (
	"testing"

	"food-marketplace-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtotal(t *testing.T) {
	got := Subtotal([]Line{{Price: 0.1, Quantity: 3}, {Price: 12.5, Quantity: 2}})
	assert.Equal(t, 25.3, got)
}

func TestDistanceKM(t *testing.T) {
	assert.InDelta(t, 0, DistanceKM(12.97, 77.59, 12.97, 77.59), 1e-9)
	// one degree of latitude is roughly 111 km
	assert.InDelta(t, 111.19, DistanceKM(0, 0, 1, 0), 0.05)
}

func TestNearestZone(t *testing.T) {
	zones := []models.Zone{
		{ID: 1, Name: "wide", CenterLat: 0, CenterLng: 0, RadiusKM: 50, IsActive: true},
		{ID: 2, Name: "close", CenterLat: 0.05, CenterLng: 0, RadiusKM: 10, IsActive: true},
		{ID: 3, Name: "closest but off", CenterLat: 0.06, CenterLng: 0, RadiusKM: 10, IsActive: false},
	}

	z := NearestZone(zones, 0.06, 0)
	require.NotNil(t, z)
	assert.Equal(t, uint(2), z.ID)

	assert.Nil(t, NearestZone(zones, 5, 5))
}

func TestDeliveryCharge(t *testing.T) {
	zone := models.Zone{BaseCharge: 20, PerKMCharge: 5, MinOrderAmount: 100, FreeDeliveryAbove: 500}

	charge, err := DeliveryCharge(zone, 3.2, 200)
	require.NoError(t, err)
	assert.Equal(t, 36.0, charge)

	charge, err = DeliveryCharge(zone, 3.2, 500)
	require.NoError(t, err)
	assert.Zero(t, charge)

	_, err = DeliveryCharge(zone, 1, 99.99)
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestEstimateMinutes(t *testing.T) {
	assert.Equal(t, 40, EstimateMinutes(2, 0))
	assert.Equal(t, 44, EstimateMinutes(2, 1.2))
}
