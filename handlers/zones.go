package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
	"food-marketplace-api/pricing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ZoneRequest struct {
	Name              string   `json:"name" binding:"required,max=100"`
	City              string   `json:"city" binding:"required,max=100"`
	Description       string   `json:"description"`
	CenterLat         *float64 `json:"center_lat" binding:"required,latitude"`
	CenterLng         *float64 `json:"center_lng" binding:"required,longitude"`
	RadiusKM          float64  `json:"radius_km" binding:"required,gt=0"`
	BaseCharge        float64  `json:"base_charge" binding:"gte=0"`
	PerKMCharge       float64  `json:"per_km_charge" binding:"gte=0"`
	MinOrderAmount    float64  `json:"min_order_amount" binding:"gte=0"`
	FreeDeliveryAbove float64  `json:"free_delivery_above" binding:"gte=0"`
	IsActive          *bool    `json:"is_active"`
}

func (r ZoneRequest) apply(z *models.Zone) {
	z.Name = strings.TrimSpace(r.Name)
	z.City = strings.TrimSpace(r.City)
	z.Description = r.Description
	z.CenterLat = *r.CenterLat
	z.CenterLng = *r.CenterLng
	z.RadiusKM = r.RadiusKM
	z.BaseCharge = r.BaseCharge
	z.PerKMCharge = r.PerKMCharge
	z.MinOrderAmount = r.MinOrderAmount
	z.FreeDeliveryAbove = r.FreeDeliveryAbove
	if r.IsActive != nil {
		z.IsActive = *r.IsActive
	}
}

func (h *Handler) CreateZone(c *gin.Context) {
	var req ZoneRequest
	if !bind(c, &req) {
		return
	}
	zone := models.Zone{IsActive: true}
	req.apply(&zone)
	active := zone.IsActive

	// is_active defaults to true in the schema and Create writes the default
	// back into zone, so an inactive zone is written in two steps.
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&zone).Error; err != nil {
			return err
		}
		if active {
			return nil
		}
		return tx.Model(&zone).Update("is_active", false).Error
	})
	if err != nil {
		fail(c, err)
		return
	}
	zone.IsActive = active
	respond(c, http.StatusCreated, gin.H{"message": "Zone created", "zone": zone})
}

// ListZones filters by city, is_active and a name search.
func (h *Handler) ListZones(c *gin.Context) {
	query := h.db(c).Model(&models.Zone{})
	if city := c.Query("city"); city != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if active, ok := queryBool(c, "is_active"); ok {
		query = query.Where("is_active = ?", active)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(search))
	}

	var zones []models.Zone
	meta, err := paginate(query.Order("name asc"), pageParams(c), &zones)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"zones": zones, "pagination": meta})
}

func (h *Handler) loadZone(c *gin.Context) (*models.Zone, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	var zone models.Zone
	if err := h.db(c).First(&zone, id).Error; err != nil {
		fail(c, orNotFound(err, "Zone"))
		return nil, false
	}
	return &zone, true
}

func (h *Handler) GetZone(c *gin.Context) {
	zone, ok := h.loadZone(c)
	if !ok {
		return
	}

	var personnel, restaurants int64
	if err := h.db(c).Model(&models.DeliveryPersonnel{}).Where("zone_id = ?", zone.ID).Count(&personnel).Error; err != nil {
		fail(c, err)
		return
	}
	if err := h.db(c).Model(&models.Restaurant{}).Where("zone_id = ?", zone.ID).Count(&restaurants).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"zone":             zone,
		"personnel_count":  personnel,
		"restaurant_count": restaurants,
	})
}

func (h *Handler) UpdateZone(c *gin.Context) {
	zone, ok := h.loadZone(c)
	if !ok {
		return
	}
	var req ZoneRequest
	if !bind(c, &req) {
		return
	}
	req.apply(zone)

	if err := h.db(c).Save(zone).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Zone updated", "zone": zone})
}

func (h *Handler) ToggleZone(c *gin.Context) {
	zone, ok := h.loadZone(c)
	if !ok {
		return
	}
	if err := h.db(c).Model(zone).Update("is_active", !zone.IsActive).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Zone status toggled", "zone": zone})
}

// errZoneInUse blocks deleting a zone that still has dependants.
var errZoneInUse = apperr.Conflict("Zone is still referenced by active delivery personnel or restaurants")

// DeleteZone refuses while active personnel or restaurants reference the
// zone. Inactive references are detached.
func (h *Handler) DeleteZone(c *gin.Context) {
	zone, ok := h.loadZone(c)
	if !ok {
		return
	}

	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		var personnel, restaurants int64
		if err := tx.Model(&models.DeliveryPersonnel{}).
			Where("zone_id = ? AND status = ?", zone.ID, models.PersonnelActive).
			Count(&personnel).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Restaurant{}).
			Where("zone_id = ? AND is_active = ?", zone.ID, true).
			Count(&restaurants).Error; err != nil {
			return err
		}
		if personnel > 0 || restaurants > 0 {
			return errZoneInUse.WithDetails(map[string]any{
				"active_personnel":   personnel,
				"active_restaurants": restaurants,
			})
		}

		if err := tx.Model(&models.DeliveryPersonnel{}).Where("zone_id = ?", zone.ID).Update("zone_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Restaurant{}).Where("zone_id = ?", zone.ID).Update("zone_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(zone).Error
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Zone deleted"})
}

func queryFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, apperr.BadRequest("Validation failed", apperr.FieldError{Field: name, Error: "is required"})
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.BadRequest("Validation failed", apperr.FieldError{Field: name, Error: "must be a number"})
	}
	return v, nil
}

func (h *Handler) activeZones(c *gin.Context) ([]models.Zone, error) {
	var zones []models.Zone
	err := h.db(c).Where("is_active = ?", true).Find(&zones).Error
	return zones, err
}

// ZoneCoverage returns the nearest active zone covering lat/lng.
func (h *Handler) ZoneCoverage(c *gin.Context) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		fail(c, err)
		return
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		fail(c, err)
		return
	}

	zones, err := h.activeZones(c)
	if err != nil {
		fail(c, err)
		return
	}
	zone := pricing.NearestZone(zones, lat, lng)
	if zone == nil {
		respond(c, http.StatusOK, gin.H{"covered": false})
		return
	}
	respond(c, http.StatusOK, gin.H{
		"covered":     true,
		"zone":        zone,
		"distance_km": pricing.Round2(pricing.DistanceKM(zone.CenterLat, zone.CenterLng, lat, lng)),
	})
}

// QuoteDelivery prices a delivery of distance_km for an order of amount.
func (h *Handler) QuoteDelivery(c *gin.Context) {
	zone, ok := h.loadZone(c)
	if !ok {
		return
	}
	if !zone.IsActive {
		fail(c, apperr.Unprocessable("Zone is not active"))
		return
	}
	distance, err := queryFloat(c, "distance_km")
	if err != nil {
		fail(c, err)
		return
	}
	amount, err := queryFloat(c, "amount")
	if err != nil {
		fail(c, err)
		return
	}
	if distance < 0 || amount < 0 {
		fail(c, apperr.BadRequest("distance_km and amount must not be negative"))
		return
	}

	charge, err := pricing.DeliveryCharge(*zone, distance, amount)
	if errors.Is(err, pricing.ErrBelowMinimum) {
		fail(c, apperr.Unprocessable(err.Error()).WithDetails(map[string]any{"min_order_amount": zone.MinOrderAmount}))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"zone_id":         zone.ID,
		"distance_km":     distance,
		"amount":          amount,
		"delivery_charge": charge,
		"free_delivery":   charge == 0 && zone.FreeDeliveryAbove > 0 && amount >= zone.FreeDeliveryAbove,
		"total":           pricing.Round2(amount + charge),
	})
}
