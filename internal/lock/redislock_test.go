package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roller-shop/internal/lock"
)

func newLocker(t *testing.T) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}, mr
}

func TestWithLockSerialisesHolders(t *testing.T) {
	locker, _ := newLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(ctx, "roller:lock:table", time.Second, func(context.Context) error {
				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestWithLockReleasesOnErrorAndGivesUpOnCancel(t *testing.T) {
	locker, mr := newLocker(t)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "k", time.Minute, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("k"))

	require.NoError(t, mr.Set("k", "someone-else"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err = locker.WithLock(ctx, "k", time.Minute, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	got, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "someone-else", got, "foreign lock is untouched")
}

func TestTryWithLockSkipsWhenHeld(t *testing.T) {
	locker, mr := newLocker(t)
	ctx := context.Background()
	ran := false

	err := locker.TryWithLock(ctx, "roller:lock:purge", time.Minute, func(ctx context.Context) error {
		require.Greater(t, mr.TTL("roller:lock:purge"), time.Duration(0))
		inner := locker.TryWithLock(ctx, "roller:lock:purge", time.Minute, func(context.Context) error {
			ran = true
			return nil
		})
		require.ErrorIs(t, inner, lock.ErrNotAcquired)
		return nil
	})
	require.NoError(t, err)
	require.False(t, ran)
	require.False(t, mr.Exists("roller:lock:purge"))

	require.NoError(t, locker.TryWithLock(ctx, "roller:lock:purge", time.Minute, func(context.Context) error {
		ran = true
		return nil
	}))
	require.True(t, ran)
}

func TestLockerRequiresClientAndCallback(t *testing.T) {
	err := lock.Locker{}.TryWithLock(context.Background(), "k", 0, func(context.Context) error { return nil })
	require.ErrorContains(t, err, "redis client not configured")

	locker, _ := newLocker(t)
	require.ErrorContains(t, locker.WithLock(context.Background(), "k", 0, nil), "callback not provided")
}
