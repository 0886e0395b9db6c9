package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/address"
	"github.com/noah-isme/roller-shop/internal/app"
	"github.com/noah-isme/roller-shop/internal/auth"
	"github.com/noah-isme/roller-shop/internal/cache"
	"github.com/noah-isme/roller-shop/internal/common"
	"github.com/noah-isme/roller-shop/internal/config"
	"github.com/noah-isme/roller-shop/internal/db"
	"github.com/noah-isme/roller-shop/internal/health"
	"github.com/noah-isme/roller-shop/internal/obs"
	"github.com/noah-isme/roller-shop/internal/pricing"
	"github.com/noah-isme/roller-shop/internal/ratelimit"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	if *migrateOnly {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
		logger.Info().Msg("migrations applied")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	}
	if cfg.Obs.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   cfg.Obs.ServiceName,
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			cfg.Obs.TracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	deps, err := app.Open(openCtx, cfg, "roller-api", logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	registry := pricing.NewRegistry(cfg.PricingMinAreaM2)
	if cfg.PricingTableFile != "" {
		if err := registry.LoadFile(cfg.PricingTableFile); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.PricingTableFile).Msg("load price file")
		}
		watcher := &pricing.Watcher{Registry: registry, Path: cfg.PricingTableFile, Logger: logger.With().Str("component", "pricing").Logger()}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("price file watcher stopped")
			}
		}()
	}

	authService, err := auth.NewService(auth.Config{
		Store:           deps.Store,
		Secret:          cfg.JWTSecret,
		RefreshSecret:   cfg.JWTRefreshSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          cfg.JWTIssuer,
		Audience:        cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authMiddleware := auth.Middleware{Service: authService}

	limiterStore, err := ratelimit.NewStore(deps.Redis, cfg.CachePrefix+":limiter")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	apiLimit, err := ratelimit.Global(limiterStore, cfg.APIRateLimit, func(err error) {
		logger.Error().Err(err).Msg("api rate limiter")
	})
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.APIRateLimit).Msg("parse api rate limit")
	}
	authLimit := ratelimit.Guard{
		Limiter: ratelimit.Limiter{Client: deps.Redis, Prefix: cfg.CachePrefix + ":ratelimit:"},
		Scope:   "auth",
		Window:  cfg.AuthRateLimitWindow,
		Max:     cfg.AuthRateLimitMax,
		Logger:  logger,
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		buckets, err := obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse OBS_METRICS_BUCKETS_MS")
		}
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, buckets, nil)
	}

	handler := newRouter(routes{
		cfg:    cfg,
		logger: logger,
		auth:   &auth.Handler{Service: authService, Production: cfg.IsProduction(), Logger: logger},
		address: &address.Handler{
			Service:    address.NewService(deps.Store),
			Production: cfg.IsProduction(),
			Logger:     logger,
		},
		pricing: &pricing.Handler{
			Registry:    registry,
			Cache:       cache.New(deps.Redis, cfg.PricingCacheTTL),
			CachePrefix: cfg.CachePrefix,
			Production:  cfg.IsProduction(),
			Logger:      logger,
		},
		health:      health.Handler{Probes: health.Probes(deps.DB, deps.Redis)},
		requireAuth: authMiddleware.RequireAuth,
		authLimit:   authLimit.Middleware,
		apiLimit:    apiLimit,
		idempotent:  common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL, Prefix: cfg.CachePrefix + ":idem:"}.Middleware,
		httpMetrics: httpMetrics,
	})

	serve(ctx, &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, logger)
}

func serve(ctx context.Context, srv *http.Server, logger zerolog.Logger) {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}
