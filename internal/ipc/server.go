package ipc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/xenopark/xenopark/internal/metrics"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddr         string
	RateLimitPerMinute int
	Logger             zerolog.Logger
}

// Server wraps an HTTP server with park routing.
type Server struct {
	httpServer *http.Server
}

// NewRouter builds the API router with its middleware stack.
func NewRouter(h *Handler, cfg ServerConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)
	r.Use(requestLogger(cfg.Logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(rateLimit(cfg.RateLimitPerMinute, time.Minute))
		}

		r.Get("/health", h.Health)

		// Park endpoints.
		r.Get("/park", h.GetPark)
		r.Post("/park/tick", h.Tick)
		r.Post("/park/contain", h.Contain)
		r.Post("/park/release", h.Release)
		r.Put("/park/security", h.SetSecurity)

		// Crisis endpoints.
		r.Get("/crisis", h.GetCrisis)
		r.Post("/crisis/respond", h.Respond)
		r.Get("/crisis/history", h.CrisisHistory)
		r.Get("/crisis/catalog", h.CrisisCatalog)
		r.Get("/crisis/log", h.CrisisLog)

		r.Get("/notifications", h.Notifications)

		// Campaign endpoints.
		r.Get("/saves", h.ListSaves)
		r.Post("/saves/{slot}", h.Save)
		r.Post("/saves/{slot}/load", h.Load)
		r.Post("/quicksave", h.QuickSave)
		r.Post("/quickload", h.QuickLoad)
		r.Get("/checkpoints", h.ListCheckpoints)
		r.Post("/checkpoints", h.Checkpoint)
		r.Post("/checkpoints/{id}/restore", h.RestoreCheckpoint)
	})

	return r
}

// NewServer creates a Server that binds to cfg.ListenAddr.
func NewServer(h *Handler, cfg ServerConfig) *Server {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(h, cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: srv}
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// FormatListenURL turns a listen address into a browsable URL. An empty or
// wildcard host becomes localhost.
func FormatListenURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// corsMiddleware adds CORS headers for the local game client.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, APIError{Code: http.StatusTooManyRequests, Message: "rate limit exceeded"})
		}),
	)
}

// metricsMiddleware records latency per route pattern, not raw path.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPRequestStarted()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveHTTPRequest(r.Method, route, strconv.Itoa(status), time.Since(start).Seconds())
	})
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
