package handlers

import (
	"errors"
	"net/http"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminListUsers lists every account, optionally filtered by role.
func (h *Handler) AdminListUsers(c *gin.Context) {
	query := h.db(c).Model(&models.User{})
	if role := models.UserRole(c.Query("role")); role != "" {
		if !role.Valid() {
			fail(c, apperr.BadRequest("Invalid role filter"))
			return
		}
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", likePattern(search), likePattern(search))
	}

	var users []models.User
	meta, err := paginate(query.Order("created_at desc"), pageParams(c), &users)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"users": users, "pagination": meta})
}

type CreateAdminRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email_addr"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"max=20"`
}

// CreateAdmin is reserved to the superadmin.
func (h *Handler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if !bind(c, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password, h.Config.Auth.BcryptCost)
	if err != nil {
		fail(c, err)
		return
	}

	admin := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Phone:        req.Phone,
		IsActive:     true,
	}
	if err := h.db(c).Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fail(c, apperr.Conflict("Email already registered"))
			return
		}
		fail(c, err)
		return
	}

	h.log(c).Info().Uint("admin_id", admin.ID).Uint("created_by", middleware.GetUserID(c)).Msg("admin created")
	respond(c, http.StatusCreated, gin.H{"message": "Admin created", "admin": admin})
}

func (h *Handler) ListAdmins(c *gin.Context) {
	query := h.db(c).Model(&models.User{}).Where("role = ?", models.RoleAdmin)
	if active, ok := queryBool(c, "is_active"); ok {
		query = query.Where("is_active = ?", active)
	}

	var admins []models.User
	meta, err := paginate(query.Order("created_at desc"), pageParams(c), &admins)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"admins": admins, "pagination": meta})
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetAdminActive activates or deactivates an admin. Deactivated admins lose
// access immediately since every request reloads the account.
func (h *Handler) SetAdminActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !bind(c, &req) {
		return
	}

	var admin models.User
	if err := h.db(c).Where("role = ?", models.RoleAdmin).First(&admin, id).Error; err != nil {
		fail(c, orNotFound(err, "Admin"))
		return
	}
	if err := h.db(c).Model(&admin).Update("is_active", *req.IsActive).Error; err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Admin updated", "admin": admin})
}
