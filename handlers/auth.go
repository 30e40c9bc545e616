package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/cache"
	"food-marketplace-api/jobs"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string          `json:"name" binding:"required,max=100"`
	Email    string          `json:"email" binding:"required,email_addr"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"required,oneof=customer restaurant delivery"`
	Phone    string          `json:"phone" binding:"max=20"`

	// Courier sign-ups only.
	VehicleType   models.VehicleType `json:"vehicle_type"`
	VehicleNumber string             `json:"vehicle_number"`
	LicenseNumber string             `json:"license_number"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email_addr"`
	Password string `json:"password" binding:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *Handler) tokenResponse(c *gin.Context, status int, message string, user *models.User) {
	token, expires, err := h.Tokens.Generate(user)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, status, gin.H{
		"message":    message,
		"token":      token,
		"expires_at": expires,
		"user":       user,
	})
}

// Register creates a customer, restaurant owner or courier account. Couriers
// also get a pending personnel profile awaiting admin verification.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	if req.Role == models.RoleDelivery && !req.VehicleType.Valid() {
		fail(c, apperr.BadRequest("Validation failed",
			apperr.FieldError{Field: "vehicle_type", Error: "must be one of: bicycle bike scooter car"}))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.Config.Auth.BcryptCost)
	if err != nil {
		fail(c, err)
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
		IsActive:     true,
	}

	err = h.db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if user.Role != models.RoleDelivery {
			return nil
		}
		return tx.Create(&models.DeliveryPersonnel{
			UserID:        user.ID,
			VehicleType:   req.VehicleType,
			VehicleNumber: req.VehicleNumber,
			LicenseNumber: req.LicenseNumber,
			Status:        models.PersonnelPending,
			Availability:  models.AvailabilityOffline,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fail(c, apperr.Conflict("Email already registered"))
			return
		}
		fail(c, err)
		return
	}

	if err := h.Notifier.Welcome(c.Request.Context(), jobs.WelcomePayload{
		UserID: user.ID, Email: user.Email, Name: user.Name, Role: string(user.Role),
	}); err != nil {
		h.log(c).Warn().Err(err).Uint("user_id", user.ID).Msg("welcome notification not enqueued")
	}
	h.invalidate(c.Request.Context(), cache.AdminDashboardKey())

	h.tokenResponse(c, http.StatusCreated, "Account created successfully", &user)
}

// Login authenticates any role and returns a JWT.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	var user models.User
	if err := h.db(c).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, apperr.Unauthorized("Invalid email or password"))
			return
		}
		fail(c, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		fail(c, apperr.Unauthorized("Invalid email or password"))
		return
	}
	if !user.IsActive {
		fail(c, apperr.Forbidden("Account is deactivated"))
		return
	}

	now := time.Now().UTC()
	if err := h.db(c).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		h.log(c).Warn().Err(err).Msg("failed to record last login")
	}
	user.LastLoginAt = &now

	h.tokenResponse(c, http.StatusOK, "Login successful", &user)
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	var user models.User
	if err := h.db(c).First(&user, middleware.GetUserID(c)).Error; err != nil {
		fail(c, orNotFound(err, "User"))
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Phone *string `json:"phone" binding:"omitempty,max=20"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bind(c, &req) {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if len(updates) == 0 {
		fail(c, apperr.BadRequest("No updatable fields provided"))
		return
	}

	var user models.User
	if err := h.db(c).First(&user, middleware.GetUserID(c)).Error; err != nil {
		fail(c, orNotFound(err, "User"))
		return
	}
	if err := h.db(c).Model(&user).Updates(updates).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,nefield=OldPassword"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}

	var user models.User
	if err := h.db(c).First(&user, middleware.GetUserID(c)).Error; err != nil {
		fail(c, orNotFound(err, "User"))
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.OldPassword); err != nil {
		fail(c, apperr.Unauthorized("Current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, h.Config.Auth.BcryptCost)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.db(c).Model(&user).Update("password_hash", hash).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Password changed"})
}
