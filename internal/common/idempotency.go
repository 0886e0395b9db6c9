package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	idemPending = "pending"
	idemDone    = "done"
)

// Idem rejects replays of write requests that carry the same Idempotency-Key
// for the same user within TTL. A request that failed with a 5xx releases
// its key so the client can retry with it.
type Idem struct {
	R      redis.Cmdable
	TTL    time.Duration
	Prefix string
}

func (i Idem) key(r *http.Request, header string) string {
	uid, _ := UserID(r.Context())
	sum := sha256.Sum256([]byte(uid + "|" + r.Method + "|" + r.URL.Path + "|" + header))
	prefix := i.Prefix
	if prefix == "" {
		prefix = "idem:"
	}
	return prefix + hex.EncodeToString(sum[:])
}

// Middleware passes requests without the header straight through.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := i.key(r, header)
		ok, err := i.R.SetNX(r.Context(), key, idemPending, i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "Idempotency store unavailable")
			return
		}
		if !ok {
			if state, _ := i.R.Get(r.Context(), key).Result(); state == idemPending {
				JSONError(w, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this Idempotency-Key is still being processed")
				return
			}
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "Duplicate request")
			return
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			ctx := context.WithoutCancel(r.Context())
			if sw.status >= http.StatusInternalServerError {
				_ = i.R.Del(ctx, key).Err()
				return
			}
			_ = i.R.Set(ctx, key, idemDone, i.TTL).Err()
		}()
		next.ServeHTTP(sw, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
