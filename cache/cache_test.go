package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) error {
	raw, ok := m.data[key]
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.data[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) Ping(context.Context) error { return nil }
func (m *memoryCache) Close() error               { return nil }

type snapshot struct {
	Orders int `json:"orders"`
}

func TestRememberComputesOnceThenServesCache(t *testing.T) {
	c := newMemoryCache()
	calls := 0
	compute := func() (snapshot, error) {
		calls++
		return snapshot{Orders: 7}, nil
	}

	first, err := Remember(context.Background(), c, zerolog.Nop(), "k", time.Minute, compute)
	require.NoError(t, err)
	second, err := Remember(context.Background(), c, zerolog.Nop(), "k", time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, 7, first.Orders)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.sets)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	c := newMemoryCache()
	boom := errors.New("db down")

	_, err := Remember(context.Background(), c, zerolog.Nop(), "k", time.Minute, func() (snapshot, error) {
		return snapshot{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.data)
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", snapshot{Orders: 1}, time.Minute))
	var out snapshot
	assert.ErrorIs(t, c.Get(context.Background(), "k", &out), ErrMiss)
}

func TestDashboardKeys(t *testing.T) {
	assert.Equal(t, "dashboard:restaurant:3", RestaurantDashboardKey(3))
	assert.Equal(t, "dashboard:personnel:9", PersonnelDashboardKey(9))
}
