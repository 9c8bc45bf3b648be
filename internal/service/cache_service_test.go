package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCache struct{ *memoryCache }

func (brokenCache) Get(context.Context, string, interface{}) error { return errors.New("redis down") }

func TestCacheServiceRoundTrip(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, time.Minute, nil, true)

	var out []string
	hit, err := svc.Get(context.Background(), "plans:boys:classes", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "plans:boys:classes", []string{"PEI1", "DP1"}, 0))
	hit, err = svc.Get(context.Background(), "plans:boys:classes", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"PEI1", "DP1"}, out)

	snapshot := metrics.Snapshot()
	assert.EqualValues(t, 1, snapshot.CacheHits)
	assert.EqualValues(t, 1, snapshot.CacheMisses)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.001)
}

func TestCacheServiceEvictAndInvalidate(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, 0, nil, true)
	ctx := context.Background()
	require.NoError(t, svc.Set(ctx, "plans:boys:1", 1, 0))
	require.NoError(t, svc.Set(ctx, "plans:boys:2", 2, 0))
	require.NoError(t, svc.Set(ctx, "plans:girls:1", 3, 0))

	require.NoError(t, svc.Evict(ctx, "plans:boys:1"))
	assert.Equal(t, []string{"plans:boys:1"}, repo.evicted)

	require.NoError(t, svc.Invalidate(ctx, "plans:boys:*"))
	assert.NotContains(t, repo.entries, "plans:boys:2")
	assert.Contains(t, repo.entries, "plans:girls:1")
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, 0, nil, false)
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Empty(t, repo.entries)

	var nilSvc *CacheService
	hit, err := nilSvc.Get(context.Background(), "k", new(string))
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, nilSvc.Evict(context.Background(), "k"))
}

func TestCacheServiceBackendFailure(t *testing.T) {
	svc := NewCacheService(&brokenCache{memoryCache: newMemoryCache()}, nil, 0, nil, true)
	hit, err := svc.Get(context.Background(), "k", new(string))
	assert.Error(t, err)
	assert.False(t, hit)
}
