package locker

import (
	"context"
	"testing"
	"time"

	"konsulin-wallet-service/internal/app/services/shared/redis"
	"konsulin-wallet-service/internal/pkg/exceptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLockServiceTryLockAndUnlock(t *testing.T) {
	locker := NewLockService(redis.NewMemoryRepository(), zap.NewNop())
	ctx := context.Background()

	acquired, value, err := locker.TryLock(ctx, "lock:subscription:1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
	assert.NotEmpty(t, value)

	acquired, _, err = locker.TryLock(ctx, "lock:subscription:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, locker.Unlock(ctx, "lock:subscription:1", "not-the-owner"))
	acquired, _, err = locker.TryLock(ctx, "lock:subscription:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "a foreign token must not release the lock")

	require.NoError(t, locker.Unlock(ctx, "lock:subscription:1", value))
	acquired, _, err = locker.TryLock(ctx, "lock:subscription:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLockServiceLockTimesOut(t *testing.T) {
	locker := NewLockService(redis.NewMemoryRepository(), zap.NewNop())
	ctx := context.Background()

	_, err := locker.Lock(ctx, "lock:worker:billing", time.Minute, time.Second)
	require.NoError(t, err)

	startTime := time.Now()
	_, err = locker.Lock(ctx, "lock:worker:billing", time.Minute, 100*time.Millisecond)
	assert.ErrorIs(t, err, exceptions.ErrLockTimeout)
	assert.True(t, exceptions.IsRetryable(err))
	assert.GreaterOrEqual(t, time.Since(startTime), 100*time.Millisecond)
}

func TestLockServiceLockWaitsForRelease(t *testing.T) {
	locker := NewLockService(redis.NewMemoryRepository(), zap.NewNop())
	ctx := context.Background()

	value, err := locker.Lock(ctx, "lock:subscription:2", time.Minute, time.Second)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = locker.Unlock(ctx, "lock:subscription:2", value)
	}()

	_, err = locker.Lock(ctx, "lock:subscription:2", time.Minute, 2*time.Second)
	assert.NoError(t, err)
}

func TestLockServiceRefresh(t *testing.T) {
	locker := NewLockService(redis.NewMemoryRepository(), zap.NewNop())
	ctx := context.Background()

	_, value, err := locker.TryLock(ctx, "lock:worker:expiry", time.Minute)
	require.NoError(t, err)

	assert.NoError(t, locker.Refresh(ctx, "lock:worker:expiry", value, time.Hour))
	assert.ErrorIs(t, locker.Refresh(ctx, "lock:worker:expiry", "other", time.Hour), exceptions.ErrLockTimeout)
}
