package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"restock/api/internal/config"
)

func newTestLimiter(t *testing.T) (*miniredis.Miniredis, *LoginLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewLoginLimiter(rdb, config.LimiterConfig{
		MaxFailures: 3,
		Window:      time.Minute,
		Lockout:     5 * time.Minute,
	})
}

func TestLoginLimiter_LocksAfterThreshold(t *testing.T) {
	_, lim := newTestLimiter(t)
	ctx := context.Background()

	allowed, err := lim.Allow(ctx, "buyer@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)

	for i := 0; i < 3; i++ {
		require.NoError(t, lim.Failure(ctx, "buyer@example.com", "10.0.0.1"))
	}

	allowed, err = lim.Allow(ctx, "buyer@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)

	// A different pair is unaffected.
	allowed, err = lim.Allow(ctx, "buyer@example.com", "10.0.0.2")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestLoginLimiter_SuccessResets(t *testing.T) {
	_, lim := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, lim.Failure(ctx, "buyer@example.com", "10.0.0.1"))
	}
	allowed, err := lim.Allow(ctx, "buyer@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, lim.Success(ctx, "buyer@example.com", "10.0.0.1"))

	allowed, err = lim.Allow(ctx, "buyer@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestLoginLimiter_LockoutExpires(t *testing.T) {
	mr, lim := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, lim.Failure(ctx, "buyer@example.com", "10.0.0.1"))
	}
	allowed, err := lim.Allow(ctx, "buyer@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(6 * time.Minute)

	allowed, err = lim.Allow(ctx, "buyer@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestLoginLimiter_WindowExpiryResetsCounter(t *testing.T) {
	mr, lim := newTestLimiter(t)
	ctx := context.Background()

	require.NoError(t, lim.Failure(ctx, "buyer@example.com", "10.0.0.1"))
	require.NoError(t, lim.Failure(ctx, "buyer@example.com", "10.0.0.1"))

	mr.FastForward(2 * time.Minute)

	// The counter restarted; one more failure is not enough to lock.
	require.NoError(t, lim.Failure(ctx, "buyer@example.com", "10.0.0.1"))
	allowed, err := lim.Allow(ctx, "buyer@example.com", "10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestLoginLimiter_RedisDownSurfacesError(t *testing.T) {
	mr, lim := newTestLimiter(t)
	mr.Close()

	_, err := lim.Allow(context.Background(), "buyer@example.com", "10.0.0.1")
	require.Error(t, err)
}
