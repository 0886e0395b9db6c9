package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Runner hosts the asynq server and the periodic scheduler.
type Runner struct {
	Redis       asynq.RedisConnOpt
	Concurrency int
	Logger      zerolog.Logger
	// Schedules maps cron specs ("@hourly", "*/5 * * * *") to tasks.
	Schedules map[string]*asynq.Task
}

// NewMux routes task types to their handlers.
func NewMux(purge asynq.Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypePurgeRefreshTokens, purge)
	return mux
}

// Run blocks until ctx is cancelled, processing tasks with handler.
func (r Runner) Run(ctx context.Context, handler asynq.Handler) error {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger := zerologAdapter{l: r.Logger}

	srv := asynq.NewServer(r.Redis, asynq.Config{
		Concurrency: concurrency,
		Logger:      logger,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			r.Logger.Error().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
	})
	scheduler := asynq.NewScheduler(r.Redis, &asynq.SchedulerOpts{Logger: logger})
	for cronspec, task := range r.Schedules {
		id, err := scheduler.Register(cronspec, task)
		if err != nil {
			return fmt.Errorf("register %s on %q: %w", task.Type(), cronspec, err)
		}
		r.Logger.Info().Str("task", task.Type()).Str("cron", cronspec).Str("entry", id).Msg("task scheduled")
	}

	if err := srv.Start(handler); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
	return nil
}

type zerologAdapter struct {
	l zerolog.Logger
}

func (a zerologAdapter) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
