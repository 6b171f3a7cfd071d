package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   30 * time.Second,
		RequestTimeout: 20 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
	}
}

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "spfw",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route and status",
}, []string{"route", "status"})

type ctxKey struct{}

// RequestID returns the id the middleware assigned to the request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg ServerConfig, handlers *Handlers, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	// Concurrency limiter shared by the API routes.
	sem := make(chan struct{}, cfg.MaxConcurrent)
	mw := middleware{sem: sem, cfg: cfg, logger: logger}

	mux.HandleFunc("POST /api/v1/batch", mw.wrap("batch", handlers.HandleBatch))
	mux.HandleFunc("GET /api/v1/health", mw.wrap("health", handlers.HandleHealth))
	mux.HandleFunc("GET /api/v1/stats", mw.wrap("stats", handlers.HandleStats))
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until shutdown signal.
func ListenAndServe(srv *http.Server, logger *slog.Logger) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

type middleware struct {
	sem    chan struct{}
	cfg    ServerConfig
	logger *slog.Logger
}

// statusRecorder captures the status code for logs and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// wrap adds request ids, security headers, concurrency limiting, recovery,
// a request timeout and access logging.
func (m middleware) wrap(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		// Security headers.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		if m.cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", m.cfg.CORSOrigin)
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequests.WithLabelValues(route, http.StatusText(rec.status)).Inc()
		}()

		select {
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
		default:
			rec.Header().Set("Retry-After", "1")
			writeError(rec, http.StatusServiceUnavailable, "service_unavailable", "", reqID)
			return
		}

		defer func() {
			if p := recover(); p != nil {
				m.logger.Error("panic in handler", "request_id", reqID, "route", route, "panic", p)
				writeError(rec, http.StatusInternalServerError, "internal_error", "", reqID)
			}
		}()

		ctx := context.WithValue(r.Context(), ctxKey{}, reqID)
		if m.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.cfg.RequestTimeout)
			defer cancel()
		}

		start := time.Now()
		handler(rec, r.WithContext(ctx))
		m.logger.Info("http request", "request_id", reqID, "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start).Round(time.Microsecond))
	}
}
