package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"food-marketplace-api/apperr"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Success bool `json:"success"`
	*apperr.HTTPError
}

// ErrorHandler renders the last error attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		httpErr := apperr.Translate(err)
		if httpErr.Status >= http.StatusInternalServerError {
			logger := GetLogger(c)
			logger.Error().Err(err).Int("status", httpErr.Status).Msg("request failed")
		}
		c.JSON(httpErr.Status, errorResponse{HTTPError: httpErr})
	}
}

// Recovery turns panics into a logged 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger := GetLogger(c)
				logger.Error().Str("stack", string(debug.Stack())).Msgf("panic: %v", r)
				_ = c.Error(fmt.Errorf("panic: %v", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{HTTPError: apperr.Internal()})
			}
		}()
		c.Next()
	}
}

// NoRoute renders unknown paths in the common error shape.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{HTTPError: apperr.NotFound("Route not found")})
}
