package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultHSTSMaxAge = 365 * 24 * time.Hour

// apiHeaders is the fixed header set of every JSON response. The API
// never serves markup, so the content policy denies everything.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cache-Control", "no-store"},
}

// Headers configures the security headers of API responses.
type Headers struct {
	HSTS              bool
	HSTSMaxAge        time.Duration
	HSTSSubdomains    bool
	TrustForwardProto bool
}

func (h Headers) hstsValue() string {
	age := h.HSTSMaxAge
	if age <= 0 {
		age = defaultHSTSMaxAge
	}
	v := fmt.Sprintf("max-age=%d", int64(age/time.Second))
	if h.HSTSSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

func (h Headers) secure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return h.TrustForwardProto && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// Middleware sets the headers before next runs so they survive handlers
// that write early.
func (h Headers) Middleware(next http.Handler) http.Handler {
	hsts := h.hstsValue()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for _, kv := range apiHeaders {
			dst.Set(kv[0], kv[1])
		}
		if h.HSTS && h.secure(r) {
			dst.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}
