package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/lock"
	"github.com/noah-isme/roller-shop/internal/obs"
)

// TokenPurger deletes expired refresh tokens and reports how many went.
type TokenPurger interface {
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// PurgeHandler processes TypePurgeRefreshTokens. Only one replica purges per
// tick; the others find the lock held and return without work.
type PurgeHandler struct {
	Store   TokenPurger
	Locker  lock.Locker
	LockKey string
	LockTTL time.Duration
	Logger  zerolog.Logger
	Now     func() time.Time
}

func (h PurgeHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	key := h.LockKey
	if key == "" {
		key = "roller:lock:" + TypePurgeRefreshTokens
	}
	started := h.now()
	var purged int64
	err := h.Locker.TryWithLock(ctx, key, h.LockTTL, func(ctx context.Context) error {
		n, err := h.Store.DeleteExpiredRefreshTokens(ctx)
		if err != nil {
			return fmt.Errorf("delete expired refresh tokens: %w", err)
		}
		purged = n
		return nil
	})
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		record(TypePurgeRefreshTokens, statusSkipped, started, h.now())
		h.Logger.Debug().Str("task", TypePurgeRefreshTokens).Msg("purge already running elsewhere")
		return nil
	case err != nil:
		record(TypePurgeRefreshTokens, statusError, started, h.now())
		h.Logger.Error().Err(err).Str("task", TypePurgeRefreshTokens).Msg("purge failed")
		return err
	}

	if obs.RefreshTokensPurged != nil {
		obs.RefreshTokensPurged.Add(float64(purged))
	}
	record(TypePurgeRefreshTokens, statusOK, started, h.now())
	h.Logger.Info().Int64("purged", purged).Msg("expired refresh tokens purged")
	return nil
}

func (h PurgeHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
