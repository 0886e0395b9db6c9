package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/common"
)

// Guard rejects requests once a client exceeds Max hits per Window within
// Scope. Redis failures fail open and are logged.
type Guard struct {
	Limiter Limiter
	Scope   string
	Window  time.Duration
	Max     int
	// Key identifies the client; RemoteIP when nil.
	Key    func(*http.Request) string
	Logger zerolog.Logger
}

// RemoteIP returns the host part of r.RemoteAddr. chi's RealIP middleware
// must run first when behind a proxy.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (g Guard) key(r *http.Request) string {
	id := RemoteIP
	if g.Key != nil {
		id = g.Key
	}
	return g.Scope + ":" + id(r)
}

// Middleware enforces the guard in front of next.
func (g Guard) Middleware(next http.Handler) http.Handler {
	limit := strconv.Itoa(max(g.Max, 0))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := g.Limiter.Allow(r.Context(), g.key(r), g.Window, g.Max)
		if err != nil {
			g.Logger.Error().Err(err).Str("scope", g.Scope).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", limit)
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
		if d.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := math.Ceil(d.Reset.Sub(g.Limiter.now()).Seconds())
		h.Set("Retry-After", strconv.Itoa(int(max(wait, 0))))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
	})
}
