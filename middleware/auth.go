package middleware

import (
	"errors"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	userIDKey = "userID"
	emailKey  = "email"
	roleKey   = "role"
)

// AuthRequired validates the bearer token and loads the caller. Tokens of
// deleted or deactivated accounts are rejected even before they expire.
func AuthRequired(tokens *auth.TokenManager, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abort(c, apperr.Unauthorized("Authorization header required (Bearer <token>)"))
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			abort(c, err)
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).Select("id", "email", "role", "is_active").
			First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abort(c, apperr.Unauthorized("Account no longer exists"))
				return
			}
			abort(c, err)
			return
		}
		if !user.IsActive {
			abort(c, apperr.Unauthorized("Account is deactivated"))
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(emailKey, user.Email)
		c.Set(roleKey, user.Role)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerRole := GetRole(c)
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		abort(c, apperr.Forbidden("Access denied. Required role(s): "+rolesString(roles)))
	}
}

func rolesString(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// GetUserID returns the authenticated caller, or 0 on public routes.
func GetUserID(c *gin.Context) uint {
	id, _ := c.Get(userIDKey)
	v, _ := id.(uint)
	return v
}

func GetRole(c *gin.Context) models.UserRole {
	role, _ := c.Get(roleKey)
	v, _ := role.(models.UserRole)
	return v
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
