// Package queue runs the background jobs of the shop on asynq.
package queue

import (
	"time"

	"github.com/hibiken/asynq"
)

// TypePurgeRefreshTokens removes expired refresh token hashes.
const TypePurgeRefreshTokens = "auth:purge_refresh_tokens"

// NewPurgeRefreshTokensTask builds the periodic purge task.
func NewPurgeRefreshTokensTask() *asynq.Task {
	return asynq.NewTask(TypePurgeRefreshTokens, nil,
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
	)
}
