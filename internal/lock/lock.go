// Package lock provides short-lived exclusive locks on a session operation,
// such as a checkout submission or a login cart merge.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/burgnice/storefront/pkg/redis"
	"github.com/google/uuid"
)

const defaultLockTTL = 30 * time.Second

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock implements a single lock using Redis SETNX + TTL.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if the owner value still matches.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if redis.IsNil(err) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// Locker hands out per-session operation locks.
type Locker struct {
	client redisStore
	ttl    time.Duration
}

func NewLocker(client redisStore, ttl time.Duration) (*Locker, error) {
	if client == nil {
		return nil, errors.New("redis client required for locker")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{client: client, ttl: ttl}, nil
}

// TryLock acquires the lock for operation on sessionID without waiting. When
// ok is false another request holds it and release is nil.
func (l *Locker) TryLock(ctx context.Context, operation, sessionID string) (release func(context.Context) error, ok bool, err error) {
	lk, err := NewRedisLock(l.client, redis.LockKey(operation, sessionID), l.ttl)
	if err != nil {
		return nil, false, err
	}
	ok, err = lk.Acquire(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return lk.Release, true, nil
}
