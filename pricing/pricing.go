// Package pricing holds the money and distance arithmetic of the marketplace:
// order subtotals, zone delivery charges, ETAs and rating means.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"food-marketplace-api/models"

	"github.com/shopspring/decimal"
)

const earthRadiusKM = 6371.0

// ErrBelowMinimum is returned when an order does not reach the zone minimum.
var ErrBelowMinimum = errors.New("order amount is below the zone minimum")

// Line is one priced order line.
type Line struct {
	Price    float64
	Quantity int
}

// Subtotal sums price × quantity over the lines, rounded to cents.
func Subtotal(lines []Line) float64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}

// DistanceKM is the haversine distance between two coordinates.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Covers reports whether the point lies inside the zone's radius.
func Covers(z models.Zone, lat, lng float64) bool {
	return DistanceKM(z.CenterLat, z.CenterLng, lat, lng) <= z.RadiusKM
}

// NearestZone returns the active zone covering the point whose center is
// closest, or nil when no zone covers it.
func NearestZone(zones []models.Zone, lat, lng float64) *models.Zone {
	var best *models.Zone
	bestDist := math.MaxFloat64
	for i := range zones {
		z := zones[i]
		if !z.IsActive {
			continue
		}
		d := DistanceKM(z.CenterLat, z.CenterLng, lat, lng)
		if d <= z.RadiusKM && d < bestDist {
			best = &zones[i]
			bestDist = d
		}
	}
	return best
}

// DeliveryCharge prices a delivery of distanceKM in zone z for an order
// worth amount. Orders at or above FreeDeliveryAbove ship free when the
// threshold is set.
func DeliveryCharge(z models.Zone, distanceKM, amount float64) (float64, error) {
	if z.MinOrderAmount > 0 && amount < z.MinOrderAmount {
		return 0, fmt.Errorf("%w (%.2f < %.2f)", ErrBelowMinimum, amount, z.MinOrderAmount)
	}
	if z.FreeDeliveryAbove > 0 && amount >= z.FreeDeliveryAbove {
		return 0, nil
	}
	if distanceKM < 0 {
		distanceKM = 0
	}
	charge := decimal.NewFromFloat(z.BaseCharge).
		Add(decimal.NewFromFloat(z.PerKMCharge).Mul(decimal.NewFromFloat(distanceKM)))
	return charge.Round(2).InexactFloat64(), nil
}

// EstimateMinutes is the ETA for a new order: 30 minutes base, 5 per line
// item and 3 per kilometre travelled, rounded up.
func EstimateMinutes(lineItems int, distanceKM float64) int {
	return 30 + 5*lineItems + int(math.Ceil(3*distanceKM))
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
