package handlers

import (
	"errors"
	"net/http"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/cache"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListPersonnel filters by status, availability, zone, vehicle and a
// name/email/phone search.
func (h *Handler) ListPersonnel(c *gin.Context) {
	query := h.db(c).Model(&models.DeliveryPersonnel{})

	if status := models.PersonnelStatus(c.Query("status")); status != "" {
		query = query.Where("delivery_personnel.status = ?", status)
	}
	if availability := c.Query("availability"); availability != "" {
		query = query.Where("availability = ?", availability)
	}
	if zoneID := queryUint(c, "zone_id"); zoneID != 0 {
		query = query.Where("zone_id = ?", zoneID)
	}
	if vehicle := c.Query("vehicle_type"); vehicle != "" {
		query = query.Where("vehicle_type = ?", vehicle)
	}
	if search := c.Query("search"); search != "" {
		pattern := likePattern(search)
		query = query.Where("user_id IN (?)", h.db(c).Model(&models.User{}).Select("id").
			Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", pattern, pattern, pattern))
	}

	var personnel []models.DeliveryPersonnel
	meta, err := paginate(query.Order("delivery_personnel.created_at desc"), pageParams(c), &personnel, preload("User", "Zone"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"personnel": personnel, "pagination": meta})
}

func (h *Handler) loadPersonnel(c *gin.Context, db *gorm.DB, id uint) (*models.DeliveryPersonnel, bool) {
	var p models.DeliveryPersonnel
	if err := db.Preload("User").Preload("Zone").First(&p, id).Error; err != nil {
		fail(c, orNotFound(err, "Delivery personnel"))
		return nil, false
	}
	return &p, true
}

// GetPersonnel returns a courier with their ten most recent deliveries.
func (h *Handler) GetPersonnel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, ok := h.loadPersonnel(c, h.db(c), id)
	if !ok {
		return
	}

	var recent []models.Delivery
	if err := h.db(c).Where("personnel_id = ?", p.ID).Order("assigned_at desc").Limit(10).Find(&recent).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"personnel": p, "recent_deliveries": recent})
}

type CreatePersonnelRequest struct {
	Name          string             `json:"name" binding:"required,max=100"`
	Email         string             `json:"email" binding:"required,email_addr"`
	Password      string             `json:"password" binding:"required,min=6"`
	Phone         string             `json:"phone" binding:"required,max=20"`
	ZoneID        *uint              `json:"zone_id"`
	VehicleType   models.VehicleType `json:"vehicle_type" binding:"required,oneof=bicycle bike scooter car"`
	VehicleNumber string             `json:"vehicle_number" binding:"max=30"`
	LicenseNumber string             `json:"license_number" binding:"max=50"`
}

func (h *Handler) zoneExists(db *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Model(&models.Zone{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.BadRequest("Zone does not exist", apperr.FieldError{Field: "zone_id", Error: "unknown zone"})
	}
	return nil
}

// CreatePersonnel creates the courier's user account and an active profile.
// Admin-created couriers are considered verified.
func (h *Handler) CreatePersonnel(c *gin.Context) {
	var req CreatePersonnelRequest
	if !bind(c, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password, h.Config.Auth.BcryptCost)
	if err != nil {
		fail(c, err)
		return
	}

	var p models.DeliveryPersonnel
	err = h.db(c).Transaction(func(tx *gorm.DB) error {
		if err := h.zoneExists(tx, req.ZoneID); err != nil {
			return err
		}
		user := models.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        normalizeEmail(req.Email),
			PasswordHash: hash,
			Role:         models.RoleDelivery,
			Phone:        req.Phone,
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		p = models.DeliveryPersonnel{
			UserID:        user.ID,
			ZoneID:        req.ZoneID,
			VehicleType:   req.VehicleType,
			VehicleNumber: req.VehicleNumber,
			LicenseNumber: req.LicenseNumber,
			Status:        models.PersonnelActive,
			Availability:  models.AvailabilityOffline,
			IsVerified:    true,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		p.User = user
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fail(c, apperr.Conflict("Email already registered"))
			return
		}
		fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.AdminDashboardKey())
	respond(c, http.StatusCreated, gin.H{"message": "Delivery personnel created", "personnel": p})
}

type UpdatePersonnelRequest struct {
	Name          *string             `json:"name" binding:"omitempty,min=1,max=100"`
	Phone         *string             `json:"phone" binding:"omitempty,max=20"`
	VehicleType   *models.VehicleType `json:"vehicle_type" binding:"omitempty,oneof=bicycle bike scooter car"`
	VehicleNumber *string             `json:"vehicle_number" binding:"omitempty,max=30"`
	LicenseNumber *string             `json:"license_number" binding:"omitempty,max=50"`
}

func (h *Handler) UpdatePersonnel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdatePersonnelRequest
	if !bind(c, &req) {
		return
	}
	p, ok := h.loadPersonnel(c, h.db(c), id)
	if !ok {
		return
	}

	profile := map[string]interface{}{}
	if req.VehicleType != nil {
		profile["vehicle_type"] = *req.VehicleType
	}
	if req.VehicleNumber != nil {
		profile["vehicle_number"] = *req.VehicleNumber
	}
	if req.LicenseNumber != nil {
		profile["license_number"] = *req.LicenseNumber
	}
	user := map[string]interface{}{}
	if req.Name != nil {
		user["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user["phone"] = *req.Phone
	}

	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		if len(profile) > 0 {
			if err := tx.Model(p).Omit(clause.Associations).Updates(profile).Error; err != nil {
				return err
			}
		}
		if len(user) > 0 {
			if err := tx.Model(&p.User).Updates(user).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Delivery personnel updated", "personnel": p})
}

// DeletePersonnel removes the profile and its user account. Couriers with an
// open delivery cannot be removed.
func (h *Handler) DeletePersonnel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		var p models.DeliveryPersonnel
		if err := tx.First(&p, id).Error; err != nil {
			return orNotFound(err, "Delivery personnel")
		}
		var open int64
		if err := tx.Model(&models.Delivery{}).
			Where("personnel_id = ? AND status IN ?", p.ID, openDeliveryStatuses).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return apperr.Conflict("Delivery personnel has deliveries in progress")
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, p.UserID).Error
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c.Request.Context(), cache.AdminDashboardKey(), cache.PersonnelDashboardKey(id))
	respond(c, http.StatusOK, gin.H{"message": "Delivery personnel deleted"})
}

type SetPersonnelStatusRequest struct {
	Status models.PersonnelStatus `json:"status" binding:"required,oneof=pending active inactive suspended"`
	Reason string                 `json:"reason" binding:"max=500"`
}

// SetPersonnelStatus changes the administrative status. Couriers leaving
// active are taken offline.
func (h *Handler) SetPersonnelStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SetPersonnelStatusRequest
	if !bind(c, &req) {
		return
	}
	p, ok := h.loadPersonnel(c, h.db(c), id)
	if !ok {
		return
	}
	if p.Availability == models.AvailabilityBusy && req.Status != models.PersonnelActive {
		fail(c, apperr.Conflict("Delivery personnel has a delivery in progress"))
		return
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Status != models.PersonnelActive {
		updates["availability"] = models.AvailabilityOffline
	}
	if err := h.db(c).Model(p).Omit(clause.Associations).Updates(updates).Error; err != nil {
		fail(c, err)
		return
	}
	h.log(c).Info().Uint("personnel_id", p.ID).Str("status", string(req.Status)).Str("reason", req.Reason).Msg("personnel status changed")
	h.invalidate(c.Request.Context(), cache.AdminDashboardKey())
	respond(c, http.StatusOK, gin.H{"message": "Status updated", "personnel": p})
}

// VerifyPersonnel marks documents as checked and activates pending couriers.
func (h *Handler) VerifyPersonnel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, ok := h.loadPersonnel(c, h.db(c), id)
	if !ok {
		return
	}

	updates := map[string]interface{}{"is_verified": true}
	if p.Status == models.PersonnelPending {
		updates["status"] = models.PersonnelActive
	}
	if err := h.db(c).Model(p).Omit(clause.Associations).Updates(updates).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Delivery personnel verified", "personnel": p})
}

type AssignZoneRequest struct {
	ZoneID *uint `json:"zone_id"`
}

// AssignPersonnelZone sets the courier's zone; null clears it.
func (h *Handler) AssignPersonnelZone(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignZoneRequest
	if !bind(c, &req) {
		return
	}
	if err := h.zoneExists(h.db(c), req.ZoneID); err != nil {
		fail(c, err)
		return
	}
	p, ok := h.loadPersonnel(c, h.db(c), id)
	if !ok {
		return
	}
	var zoneID interface{}
	if req.ZoneID != nil {
		zoneID = *req.ZoneID
	}
	if err := h.db(c).Model(&models.DeliveryPersonnel{}).Where("id = ?", p.ID).Update("zone_id", zoneID).Error; err != nil {
		fail(c, err)
		return
	}
	if p, ok = h.loadPersonnel(c, h.db(c), id); !ok {
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Zone assigned", "personnel": p})
}
