// Package limiter throttles failed login attempts per (email, client IP)
// pair using redis counters.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"restock/api/internal/config"
)

type LoginLimiter struct {
	rdb         *redis.Client
	maxFailures int
	window      time.Duration
	lockout     time.Duration
}

func NewLoginLimiter(rdb *redis.Client, cfg config.LimiterConfig) *LoginLimiter {
	return &LoginLimiter{
		rdb:         rdb,
		maxFailures: cfg.MaxFailures,
		window:      cfg.Window,
		lockout:     cfg.Lockout,
	}
}

// Allow reports whether a login attempt for the pair may proceed. A redis
// error surfaces to the caller rather than silently allowing the attempt.
func (l *LoginLimiter) Allow(ctx context.Context, email, ip string) (bool, error) {
	locked, err := l.rdb.Exists(ctx, lockKey(email, ip)).Result()
	if err != nil {
		return false, fmt.Errorf("limiter exists: %w", err)
	}
	return locked == 0, nil
}

// Failure records a failed attempt and locks the pair out once the
// threshold is reached within the window.
func (l *LoginLimiter) Failure(ctx context.Context, email, ip string) error {
	key := failKey(email, ip)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("limiter incr: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("limiter expire: %w", err)
		}
	}

	if count >= int64(l.maxFailures) {
		if err := l.rdb.Set(ctx, lockKey(email, ip), 1, l.lockout).Err(); err != nil {
			return fmt.Errorf("limiter lock: %w", err)
		}
	}
	return nil
}

// Success clears the counters after a successful login.
func (l *LoginLimiter) Success(ctx context.Context, email, ip string) error {
	if err := l.rdb.Del(ctx, failKey(email, ip), lockKey(email, ip)).Err(); err != nil {
		return fmt.Errorf("limiter del: %w", err)
	}
	return nil
}

func failKey(email, ip string) string {
	return "login:fail:" + email + ":" + ip
}

func lockKey(email, ip string) string {
	return "login:lock:" + email + ":" + ip
}
