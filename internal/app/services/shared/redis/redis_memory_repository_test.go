package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCompareAndDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	acquired, err := repo.TrySetNX(ctx, "lock:a", "owner-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = repo.TrySetNX(ctx, "lock:a", "owner-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	stored, err := repo.Get(ctx, "lock:a")
	require.NoError(t, err)
	assert.Equal(t, `"owner-1"`, stored)

	deleted, err := repo.CompareAndDelete(ctx, "lock:a", "owner-2")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.CompareAndDelete(ctx, "lock:a", "owner-1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestMemoryRepositoryExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository().(*memoryRepository)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	count, err := repo.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.NoError(t, repo.Expire(ctx, "counter", time.Minute))

	count, err = repo.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	now = now.Add(2 * time.Minute)
	count, err = repo.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "expired counter restarts")

	_, err = repo.TrySetNX(ctx, "lock:b", "owner", time.Second)
	require.NoError(t, err)
	extended, err := repo.CompareAndExpire(ctx, "lock:b", "owner", time.Hour)
	require.NoError(t, err)
	assert.True(t, extended)

	now = now.Add(time.Minute)
	stored, err := repo.Get(ctx, "lock:b")
	require.NoError(t, err)
	assert.NotEmpty(t, stored)
}
