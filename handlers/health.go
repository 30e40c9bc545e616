package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type check struct {
	name     string
	required bool
	ping     func(context.Context) error
}

// Health pings the database, cache and analytics store. Only a database
// failure makes the service unhealthy; the others degrade it.
func (h *Handler) Health(c *gin.Context) {
	checks := []check{
		{"database", true, func(ctx context.Context) error {
			sqlDB, err := h.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		{"cache", false, h.Cache.Ping},
		{"analytics", false, h.Analytics.Ping},
	}

	status, code := "healthy", http.StatusOK
	results := gin.H{}
	for _, chk := range checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		err := chk.ping(ctx)
		cancel()
		if err == nil {
			results[chk.name] = "up"
			continue
		}
		results[chk.name] = "down"
		h.log(c).Warn().Err(err).Str("check", chk.name).Msg("health check failed")
		if chk.required {
			status, code = "unhealthy", http.StatusServiceUnavailable
		} else if status == "healthy" {
			status = "degraded"
		}
	}

	c.JSON(code, gin.H{
		"success": code == http.StatusOK,
		"status":  status,
		"service": h.Config.App.Name,
		"env":     h.Config.App.Env,
		"checks":  results,
	})
}

func (h *Handler) Welcome(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"message": "Welcome to the Food Delivery Marketplace API",
		"docs":    "/api/state-machine",
		"health":  "/health",
		"roles":   []string{"customer", "restaurant", "delivery", "admin", "superadmin"},
	})
}
