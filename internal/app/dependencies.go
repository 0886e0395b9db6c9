// Package app opens the infrastructure shared by the API and the worker.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/config"
	"github.com/noah-isme/roller-shop/internal/db"
	"github.com/noah-isme/roller-shop/internal/obs"
)

// Dependencies are the connections every process needs.
type Dependencies struct {
	DB    *pgxpool.Pool
	Store *db.PoolStore
	Redis *redis.Client
}

// Open connects to Postgres and Redis and verifies both with a ping.
// applicationName shows up in pg_stat_activity.
func Open(ctx context.Context, cfg *config.Config, applicationName string, logger zerolog.Logger) (*Dependencies, error) {
	pool, err := OpenPool(ctx, cfg.DatabaseURL, applicationName)
	if err != nil {
		return nil, err
	}
	rdb, err := OpenRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Dependencies{DB: pool, Store: db.NewStore(pool), Redis: rdb}, nil
}

// Close releases the connections.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	return errors.Join(errs...)
}

// OpenPool opens a traced pgx pool.
func OpenPool(ctx context.Context, databaseURL, applicationName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis opens a Redis client with OpenTelemetry tracing and, when
// withMetrics is set, redis metrics. Instrumentation failures are logged, not
// fatal.
func OpenRedis(ctx context.Context, redisURL string, withMetrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if withMetrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
