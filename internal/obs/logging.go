package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/roller-shop/internal/common"
)

// NewLogger returns a timestamped logger writing JSON to stdout, or a
// human-readable console format when format is "console" or "text".
// Unknown levels fall back to info.
func NewLogger(format, level string) zerolog.Logger {
	return newLogger(os.Stdout, format, level)
}

func newLogger(w io.Writer, format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// RequestLogger writes one "http_request" entry per request. Entries for
// QuietPaths drop to debug unless the request failed.
type RequestLogger struct {
	Logger     zerolog.Logger
	QuietPaths []string
}

func (l RequestLogger) event(path string, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return l.Logger.Error()
	case status >= http.StatusBadRequest:
		return l.Logger.Warn()
	case underAny(path, l.QuietPaths):
		return l.Logger.Debug()
	default:
		return l.Logger.Info()
	}
}

// Middleware logs after next has written its response.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := statusOf(ww)
		route := RouteOf(r)
		if route == "" {
			route = r.URL.Path
		}
		evt := l.event(r.URL.Path, status).
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration_ms", time.Since(start)).
			Int("bytes", ww.BytesWritten())

		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			evt = evt.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		uid, _ := common.UserID(r.Context())
		for _, f := range [...][2]string{
			{"request_id", middleware.GetReqID(r.Context())},
			{"user_id", uid},
			{"host", r.Host},
			{"remote_addr", r.RemoteAddr},
			{"user_agent", r.UserAgent()},
		} {
			if v := strings.TrimSpace(f[1]); v != "" {
				evt = evt.Str(f[0], v)
			}
		}
		evt.Msg("http_request")
	})
}
