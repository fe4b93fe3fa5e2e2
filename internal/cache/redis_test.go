package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subscription-manager/internal/config"
	"subscription-manager/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := models.Plan{
		ID:           3,
		Name:         "Pro Monthly",
		Type:         models.PlanTypePro,
		Price:        19.99,
		DurationDays: 30,
		Features:     map[string]bool{"api_access": true},
		IsActive:     true,
	}
	err := cache.Set("plan:3", expected, time.Minute)
	require.NoError(t, err)

	var actual models.Plan
	found, err := cache.Get("plan:3", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGet_MissingKey(t *testing.T) {
	cache := setupTestCache(t)

	var out models.Plan
	found, err := cache.Get("plan:999", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Set("plan:1", models.Plan{ID: 1}, time.Minute)
	require.NoError(t, err)

	err = cache.Invalidate("plan:1")
	require.NoError(t, err)

	var out models.Plan
	found, err := cache.Get("plan:1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGet_CorruptedValue(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Db.Set(context.Background(), "plan:2", "not-json", time.Minute).Err()
	require.NoError(t, err)

	var out models.Plan
	found, err := cache.Get("plan:2", &out)
	assert.Error(t, err)
	assert.False(t, found)
}
