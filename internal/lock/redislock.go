// Package lock serialises work across replicas with a Redis key.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL   = 30 * time.Second
	defaultRetry = 50 * time.Millisecond
)

// ErrNotAcquired is returned by TryWithLock when another holder owns the key.
var ErrNotAcquired = errors.New("lock: held by another process")

// unlock deletes the key only while it still carries our token, so an
// expired lock taken over by another holder is left alone.
var unlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out Redis locks. The lock expires after its TTL even if the
// holder dies.
type Locker struct {
	R            redis.Cmdable
	RetryBackoff time.Duration
}

// WithLock waits for key, runs fn while holding it and releases it
// afterwards, whatever fn returns.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if err := l.check(fn); err != nil {
		return err
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = defaultRetry
	}
	t := time.NewTicker(retry)
	defer t.Stop()
	for {
		token, err := l.acquire(ctx, key, ttl)
		if err == nil {
			return l.run(ctx, key, token, fn)
		}
		if !errors.Is(err, ErrNotAcquired) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// TryWithLock runs fn only when key is free right now and returns
// ErrNotAcquired otherwise. Periodic jobs use it so one replica does the
// work per tick.
func (l Locker) TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if err := l.check(fn); err != nil {
		return err
	}
	token, err := l.acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	return l.run(ctx, key, token, fn)
}

func (l Locker) check(fn func(context.Context) error) error {
	switch {
	case l.R == nil:
		return errors.New("lock: redis client not configured")
	case fn == nil:
		return errors.New("lock: callback not provided")
	}
	return nil
}

func (l Locker) acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	token := uuid.NewString()
	ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
	switch {
	case err != nil:
		return "", err
	case !ok:
		return "", ErrNotAcquired
	}
	return token, nil
}

func (l Locker) run(ctx context.Context, key, token string, fn func(context.Context) error) error {
	// Release even when ctx was cancelled during fn.
	defer func() { _ = unlock.Run(context.WithoutCancel(ctx), l.R, []string{key}, token).Err() }()
	return fn(ctx)
}
