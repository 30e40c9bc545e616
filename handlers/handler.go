// Package handlers implements the HTTP API. Handlers attach failures with
// c.Error and leave rendering to middleware.ErrorHandler.
package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"food-marketplace-api/analytics"
	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/cache"
	"food-marketplace-api/config"
	"food-marketplace-api/events"
	"food-marketplace-api/jobs"
	"food-marketplace-api/middleware"
	"food-marketplace-api/pagination"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Handler carries the dependencies shared by every endpoint.
type Handler struct {
	DB        *gorm.DB
	Tokens    *auth.TokenManager
	Cache     cache.Cache
	Notifier  jobs.Notifier
	Events    events.Publisher
	Analytics analytics.Store
	Config    *config.Config
	Logger    zerolog.Logger
}

func New(
	cfg *config.Config,
	db *gorm.DB,
	tokens *auth.TokenManager,
	c cache.Cache,
	notifier jobs.Notifier,
	publisher events.Publisher,
	store analytics.Store,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		DB:        db,
		Tokens:    tokens,
		Cache:     c,
		Notifier:  notifier,
		Events:    publisher,
		Analytics: store,
		Config:    cfg,
		Logger:    logger,
	}
}

func (h *Handler) db(c *gin.Context) *gorm.DB {
	return h.DB.WithContext(c.Request.Context())
}

func (h *Handler) log(c *gin.Context) *zerolog.Logger {
	l := middleware.GetLogger(c)
	if l.GetLevel() == zerolog.Disabled {
		return &h.Logger
	}
	return &l
}

func respond(c *gin.Context, status int, body gin.H) {
	body["success"] = true
	c.JSON(status, body)
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bind decodes and validates the JSON body.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, err)
		return false
	}
	return true
}

// pathID parses a positive numeric path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, apperr.BadRequest("Invalid "+strings.ReplaceAll(name, "Id", " id")))
		return 0, false
	}
	return uint(id), true
}

func queryBool(c *gin.Context, name string) (value bool, ok bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func queryUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func pageParams(c *gin.Context) pagination.Params {
	return pagination.Parse(c.Query("page"), c.Query("limit"))
}

// paginate counts query, then loads the requested page into dest. Scopes
// such as preloads apply to the page load only.
func paginate(query *gorm.DB, p pagination.Params, dest any, scopes ...func(*gorm.DB) *gorm.DB) (pagination.Meta, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return pagination.Meta{}, err
	}
	if err := p.Scope(query.Session(&gorm.Session{})).Scopes(scopes...).Find(dest).Error; err != nil {
		return pagination.Meta{}, err
	}
	return pagination.NewMeta(p, total), nil
}

func preload(relations ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, r := range relations {
			db = db.Preload(r)
		}
		return db
	}
}

// invalidate drops cached dashboards. Failures only cost freshness.
func (h *Handler) invalidate(ctx context.Context, keys ...string) {
	if err := h.Cache.Delete(ctx, keys...); err != nil {
		h.Logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

func notFound(what string) error {
	return apperr.NotFound(what + " not found")
}

// orNotFound maps gorm.ErrRecordNotFound onto a named 404.
func orNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return err
}
