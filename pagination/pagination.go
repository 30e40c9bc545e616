// Package pagination parses page/limit query parameters and builds the
// metadata block returned with every list response.
package pagination

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps the offset well inside the range every driver accepts.
	MaxPage = 1_000_000
)

type Params struct {
	Page  int
	Limit int
}

// Parse reads raw page and limit values. Missing or invalid values fall back
// to page 1 and DefaultLimit; page is capped at MaxPage and limit is clamped
// to [1, MaxLimit].
func Parse(page, limit string) Params {
	p := Params{Page: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(page); n > 0 && (err == nil || errors.Is(err, strconv.ErrRange)) {
		p.Page = min(n, MaxPage)
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Params) Offset() int {
	return (min(max(p.Page, 1), MaxPage) - 1) * min(max(p.Limit, 1), MaxLimit)
}

// Scope applies offset and limit to a gorm query.
func (p Params) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Limit)
}

type Meta struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

func NewMeta(p Params, total int64) Meta {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Meta{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}
