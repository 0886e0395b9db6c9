package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/roller-shop/internal/app"
	"github.com/noah-isme/roller-shop/internal/config"
	"github.com/noah-isme/roller-shop/internal/lock"
	"github.com/noah-isme/roller-shop/internal/obs"
	"github.com/noah-isme/roller-shop/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	}

	openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	deps, err := app.Open(openCtx, cfg, "roller-worker", logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for asynq")
	}

	purge := queue.PurgeHandler{
		Store:   deps.Store,
		Locker:  lock.Locker{R: deps.Redis},
		LockKey: cfg.CachePrefix + ":lock:" + queue.TypePurgeRefreshTokens,
		LockTTL: cfg.Worker.PurgeLockTTL,
		Logger:  logger,
	}
	runner := queue.Runner{
		Redis:       redisOpt,
		Concurrency: cfg.Worker.Concurrency,
		Logger:      logger,
		Schedules: map[string]*asynq.Task{
			cfg.Worker.PurgeSchedule: queue.NewPurgeRefreshTokensTask(),
		},
	}

	logger.Info().Str("purge_schedule", cfg.Worker.PurgeSchedule).Msg("worker starting")
	if err := runner.Run(ctx, queue.NewMux(purge)); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}
