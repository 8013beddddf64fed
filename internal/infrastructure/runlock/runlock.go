// Package runlock serializes commit runs. The redis lock covers multiple
// replicas; the local lock covers a single process. Either way the ledger's
// per-item claim stays the correctness backstop.
package runlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
)

const defaultTTL = 10 * time.Minute

// releaseScript deletes the lock only when it still holds our token, so an
// expired-and-reacquired lock is never released out from under its new owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

// RedisLock implements port.RunLock with SET NX PX plus a token-checked Lua
// release. The TTL bounds how long a crashed run can block its successors.
type RedisLock struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLock creates a redis-backed run lock on the given key.
func NewRedisLock(rdb *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisLock {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLock{rdb: rdb, key: key, ttl: ttl, logger: logger}
}

// Acquire takes the lock or fails fast with port.ErrLockHeld.
func (l *RedisLock) Acquire(ctx context.Context) (port.Release, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock token: %w", err)
	}

	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, port.ErrLockHeld
	}

	l.logger.Debug("Run lock acquired", zap.String("key", l.key))

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Int64()
		if err != nil {
			return fmt.Errorf("failed to release run lock: %w", err)
		}
		if n == 0 {
			l.logger.Warn("Run lock expired before release", zap.String("key", l.key))
		}
		return nil
	}, nil
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// LocalLock implements port.RunLock within one process.
type LocalLock struct {
	mu sync.Mutex
}

// NewLocalLock creates an in-process run lock.
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// Acquire takes the lock or fails fast with port.ErrLockHeld.
func (l *LocalLock) Acquire(ctx context.Context) (port.Release, error) {
	if !l.mu.TryLock() {
		return nil, port.ErrLockHeld
	}
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, nil
}
