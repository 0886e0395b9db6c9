// Package health serves the liveness, readiness and status probes.
package health

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/roller-shop/internal/common"
)

const defaultProbeTimeout = 500 * time.Millisecond

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness flag. The API clears it when shutdown begins
// so load balancers drain the instance before connections close.
func SetReady(v bool) { ready.Store(v) }

// Probe is one readiness dependency.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) error
}

// Probes returns the postgres and redis probes. A nil dependency always
// fails its probe.
func Probes(db *pgxpool.Pool, rdb *redis.Client) []Probe {
	return []Probe{
		{Name: "db", Check: func(ctx context.Context) error {
			if db == nil {
				return errors.New("db not configured")
			}
			return db.Ping(ctx)
		}},
		{Name: "redis", Timeout: 300 * time.Millisecond, Check: func(ctx context.Context) error {
			if rdb == nil {
				return errors.New("redis not configured")
			}
			return rdb.Ping(ctx).Err()
		}},
	}
}

// Handler serves /health, /health/live and /health/ready.
type Handler struct {
	Probes []Probe
	Now    func() time.Time
}

// Status answers GET /health with {"status":"ok","timestamp":...}.
func (h Handler) Status(w http.ResponseWriter, _ *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	common.JSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": now().UTC().Format(time.RFC3339Nano),
	})
}

// Live answers "ok" while the process is serving.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe concurrently and reports each by name. Any failing
// probe, or a draining instance, makes it a 503.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if len(h.Probes) == 0 || !ready.Load() {
		common.JSONError(w, http.StatusServiceUnavailable, "NOT_READY", "dependencies unavailable")
		return
	}

	var (
		mu     sync.Mutex
		status = make(map[string]string, len(h.Probes))
		failed bool
		g      errgroup.Group
	)
	for _, p := range h.Probes {
		g.Go(func() error {
			timeout := p.Timeout
			if timeout <= 0 {
				timeout = defaultProbeTimeout
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			res := "ok"
			if err := p.Check(ctx); err != nil {
				res = err.Error()
			}
			mu.Lock()
			status[p.Name] = res
			failed = failed || res != "ok"
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	code := http.StatusOK
	if failed {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}
