package handlers

import (
	"net/http"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/cache"
	"food-marketplace-api/models"
	"food-marketplace-api/pricing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetMyPersonnelProfile returns the courier's own profile.
func (h *Handler) GetMyPersonnelProfile(c *gin.Context) {
	p, err := h.currentPersonnel(c, h.db(c).Preload("User").Preload("Zone"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"personnel": p})
}

type AvailabilityRequest struct {
	Availability models.Availability `json:"availability" binding:"required,oneof=online offline"`
}

// UpdateAvailability toggles online/offline. Busy belongs to the delivery
// flow and cannot be left or entered from here.
func (h *Handler) UpdateAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if !bind(c, &req) {
		return
	}

	var p *models.DeliveryPersonnel
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = h.currentPersonnel(c, tx); err != nil {
			return err
		}
		if p.Availability == models.AvailabilityBusy {
			return apperr.Conflict("Finish your current delivery before changing availability")
		}
		if req.Availability == models.AvailabilityOnline {
			if err := requireWorking(p); err != nil {
				return err
			}
		}
		res := tx.Model(p).Where("availability <> ?", models.AvailabilityBusy).
			Update("availability", req.Availability)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentUpdate
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.PersonnelDashboardKey(p.ID), cache.AdminDashboardKey())
	respond(c, http.StatusOK, gin.H{"message": "Availability updated", "availability": p.Availability})
}

type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	var req LocationRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.currentPersonnel(c, h.db(c))
	if err != nil {
		fail(c, err)
		return
	}
	now := time.Now().UTC()
	err = h.db(c).Model(p).Updates(map[string]any{
		"current_lat":         *req.Latitude,
		"current_lng":         *req.Longitude,
		"location_updated_at": now,
	}).Error
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"message":             "Location updated",
		"latitude":            *req.Latitude,
		"longitude":           *req.Longitude,
		"location_updated_at": now,
	})
}

type EarningsDay struct {
	Date       string  `json:"date"`
	Deliveries int64   `json:"deliveries"`
	Earnings   float64 `json:"earnings"`
	DistanceKM float64 `json:"distance_km"`
}

// MyEarnings sums delivered fees per day over [from, to], defaulting to the
// last seven days.
func (h *Handler) MyEarnings(c *gin.Context) {
	p, err := h.currentPersonnel(c, h.db(c))
	if err != nil {
		fail(c, err)
		return
	}
	from, to, err := dateRange(c, 7)
	if err != nil {
		fail(c, err)
		return
	}

	var rows []struct {
		DeliveredAt time.Time
		Fee         float64
		DistanceKM  float64
	}
	err = h.db(c).Model(&models.Delivery{}).
		Select("delivered_at, fee, distance_km").
		Where("personnel_id = ? AND status = ? AND delivered_at >= ? AND delivered_at < ?",
			p.ID, models.DeliveryDelivered, from, to).
		Order("delivered_at asc").
		Scan(&rows).Error
	if err != nil {
		fail(c, err)
		return
	}

	days := []EarningsDay{}
	index := map[string]int{}
	var total EarningsDay
	for _, r := range rows {
		key := r.DeliveredAt.UTC().Format(models.DateLayout)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, EarningsDay{Date: key})
		}
		days[i].Deliveries++
		days[i].Earnings += r.Fee
		days[i].DistanceKM += r.DistanceKM
		total.Deliveries++
		total.Earnings += r.Fee
		total.DistanceKM += r.DistanceKM
	}
	for i := range days {
		days[i].Earnings = pricing.Round2(days[i].Earnings)
		days[i].DistanceKM = pricing.Round2(days[i].DistanceKM)
	}

	respond(c, http.StatusOK, gin.H{
		"from":              from.Format(models.DateLayout),
		"to":                to.AddDate(0, 0, -1).Format(models.DateLayout),
		"deliveries":        total.Deliveries,
		"earnings":          pricing.Round2(total.Earnings),
		"distance_km":       pricing.Round2(total.DistanceKM),
		"lifetime_earnings": p.TotalEarnings,
		"daily":             days,
	})
}

// dateRange reads from/to query dates as an inclusive day range and returns
// it as [from, to+1day). Missing bounds default to the last days days.
func dateRange(c *gin.Context, days int) (time.Time, time.Time, error) {
	from, hasFrom, err := parseDay(c, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, hasTo, err := parseDay(c, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !hasTo {
		now := time.Now().UTC()
		to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if !hasFrom {
		from = to.AddDate(0, 0, -(days - 1))
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperr.BadRequest("Validation failed",
			apperr.FieldError{Field: "to", Error: "must not be before from"})
	}
	if to.Sub(from) > 366*24*time.Hour {
		return time.Time{}, time.Time{}, apperr.BadRequest("Date range cannot exceed one year")
	}
	return from, to.AddDate(0, 0, 1), nil
}
