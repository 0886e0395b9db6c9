package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roller-shop/internal/address"
	"github.com/noah-isme/roller-shop/internal/auth"
	"github.com/noah-isme/roller-shop/internal/common"
	"github.com/noah-isme/roller-shop/internal/config"
	"github.com/noah-isme/roller-shop/internal/health"
	"github.com/noah-isme/roller-shop/internal/obs"
	"github.com/noah-isme/roller-shop/internal/pricing"
	"github.com/noah-isme/roller-shop/internal/security"
)

type middlewareFunc = func(http.Handler) http.Handler

// routes collects everything the router mounts. Optional middlewares may be
// nil.
type routes struct {
	cfg    *config.Config
	logger zerolog.Logger

	auth    *auth.Handler
	address *address.Handler
	pricing *pricing.Handler
	health  health.Handler

	requireAuth middlewareFunc
	authLimit   middlewareFunc
	apiLimit    middlewareFunc
	idempotent  middlewareFunc
	httpMetrics *obs.HTTPMetrics
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if rt.cfg.Obs.TracingEnabled {
		r.Use(obs.Tracing(rt.cfg.Obs.ServiceName, "/health", "/metrics"))
	}
	if rt.httpMetrics != nil {
		r.Use(rt.httpMetrics.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: rt.logger, QuietPaths: []string{"/health", "/metrics"}}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(rt.cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{HSTS: rt.cfg.HSTSEnabled, TrustForwardProto: rt.cfg.TrustForwardProto}.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	if rt.httpMetrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if rt.cfg.Obs.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), rt.cfg.Obs.PprofUser, rt.cfg.Obs.PprofPass))
	}

	r.Get("/health", rt.health.Status)
	r.Get("/health/live", rt.health.Live)
	r.Get("/health/ready", rt.health.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Use(security.BodyLimit{Max: rt.cfg.BodyLimitBytes}.Middleware)
		use(api, rt.apiLimit)

		api.Route("/auth", func(a chi.Router) {
			a.Group(func(limited chi.Router) {
				use(limited, rt.authLimit)
				limited.Post("/register", rt.auth.Register)
				limited.Post("/login", rt.auth.Login)
			})
			a.Post("/refresh", rt.auth.Refresh)
			a.Group(func(protected chi.Router) {
				protected.Use(rt.requireAuth)
				protected.Get("/me", rt.auth.Me)
				protected.Post("/logout", rt.auth.Logout)
			})
		})

		api.Route("/addresses", func(a chi.Router) {
			a.Use(rt.requireAuth)
			var create []middlewareFunc
			if rt.idempotent != nil {
				create = append(create, rt.idempotent)
			}
			rt.address.Routes(a, create...)
		})

		api.Route("/pricing", func(p chi.Router) {
			p.Get("/config", rt.pricing.Config)
			p.Post("/quote", rt.pricing.Quote)
		})
	})
	return r
}

func use(r chi.Router, mw middlewareFunc) {
	if mw != nil {
		r.Use(mw)
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
