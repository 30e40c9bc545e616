// Package analytics records one event per finished delivery and derives
// delivery performance figures from them.
package analytics

import (
	"context"
	"fmt"
	"time"

	"food-marketplace-api/models"

	"gorm.io/gorm"
)

// Filter narrows Between. Zero values match everything.
type Filter struct {
	PersonnelID uint
	ZoneID      uint
}

type Store interface {
	Record(ctx context.Context, event *models.DeliveryEvent) error
	Between(ctx context.Context, from, to time.Time, f Filter) ([]models.DeliveryEvent, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// GormStore keeps events in the relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Record(ctx context.Context, event *models.DeliveryEvent) error {
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("recording delivery event: %w", err)
	}
	return nil
}

// Between returns events recorded in [from, to).
func (s *GormStore) Between(ctx context.Context, from, to time.Time, f Filter) ([]models.DeliveryEvent, error) {
	q := s.db.WithContext(ctx).
		Where("recorded_at >= ? AND recorded_at < ?", from.UTC(), to.UTC())
	if f.PersonnelID != 0 {
		q = q.Where("personnel_id = ?", f.PersonnelID)
	}
	if f.ZoneID != 0 {
		q = q.Where("zone_id = ?", f.ZoneID)
	}

	var events []models.DeliveryEvent
	if err := q.Order("recorded_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("loading delivery events: %w", err)
	}
	return events, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close is a no-op; the database is owned by the caller.
func (s *GormStore) Close(context.Context) error { return nil }
