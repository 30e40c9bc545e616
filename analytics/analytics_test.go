package analytics

import (
	"context"
	"testing"
	"time"

	"food-marketplace-api/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func uintPtr(v uint) *uint { return &v }

func completed(personnel uint, zone *uint, minutes float64, onTime bool, earnings float64) models.DeliveryEvent {
	return models.DeliveryEvent{
		PersonnelID:     personnel,
		ZoneID:          zone,
		Type:            models.EventDeliveryCompleted,
		DistanceKM:      2,
		DurationMinutes: minutes,
		OnTime:          onTime,
		Earnings:        earnings,
	}
}

func TestSummarize(t *testing.T) {
	events := []models.DeliveryEvent{
		completed(1, uintPtr(2), 30, true, 40),
		completed(1, uintPtr(2), 50, false, 40),
		completed(2, nil, 20, true, 25),
		{PersonnelID: 2, Type: models.EventDeliveryFailed},
	}

	s := Summarize(events)

	assert.Equal(t, 3, s.Completed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 0.75, s.SuccessRate)
	assert.Equal(t, 0.67, s.OnTimeRate)
	assert.Equal(t, 33.33, s.AvgDurationMinutes)
	assert.Equal(t, 2.0, s.AvgDistanceKM)
	assert.Equal(t, 105.0, s.TotalEarnings)

	require.Len(t, s.ByZone, 2)
	assert.Equal(t, ZoneStat{ZoneID: 0, Completed: 1, AvgDurationMinutes: 20}, s.ByZone[0])
	assert.Equal(t, ZoneStat{ZoneID: 2, Completed: 2, AvgDurationMinutes: 40}, s.ByZone[1])

	require.Len(t, s.Leaderboard, 2)
	assert.Equal(t, uint(1), s.Leaderboard[0].PersonnelID)
	assert.Equal(t, 2, s.Leaderboard[0].Completed)
	assert.Equal(t, 0.5, s.Leaderboard[0].OnTimeRate)
	assert.Equal(t, 1, s.Leaderboard[1].Failed)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Completed)
	assert.Zero(t, s.OnTimeRate)
	assert.Empty(t, s.ByZone)
	assert.Empty(t, s.Leaderboard)
}

func TestGormStoreBetween(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DeliveryEvent{}))

	store := NewGormStore(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	inside := completed(1, uintPtr(4), 25, true, 30)
	inside.RecordedAt = day.Add(10 * time.Hour)
	otherCourier := completed(2, uintPtr(4), 25, true, 30)
	otherCourier.RecordedAt = day.Add(11 * time.Hour)
	nextDay := completed(1, uintPtr(4), 25, true, 30)
	nextDay.RecordedAt = day.Add(24 * time.Hour)

	for _, e := range []*models.DeliveryEvent{&inside, &otherCourier, &nextDay} {
		require.NoError(t, store.Record(ctx, e))
	}

	all, err := store.Between(ctx, day, day.AddDate(0, 0, 1), Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := store.Between(ctx, day, day.AddDate(0, 0, 1), Filter{PersonnelID: 1})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, uint(1), mine[0].PersonnelID)
}

func TestMongoFilter(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := mongoFilter(from, from.AddDate(0, 0, 7), Filter{ZoneID: 3})
	assert.Equal(t, uint(3), f["zone_id"])
	assert.NotContains(t, f, "personnel_id")
}
