package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"ledger/internal/backend"
	"ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
)

const readyTimeout = 2 * time.Second

// Config holds the HTTP settings taken from the application config.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

type Server struct {
	http.Server
	router  chi.Router
	ledger  backend.Backend
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *log.Logger

	shutdownOnce sync.Once
}

// NewServer wires the router, middleware and handlers around ledger.
// m and logger may be nil.
func NewServer(cfg Config, ledger backend.Backend, m *metrics.Metrics, logger *log.Logger) *Server {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		ledger:  ledger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		metrics: m,
		logger:  logger,
	}

	ips := security.NewClientIPResolver()
	tracer := trace.NewMiddleware(trace.Options{
		Logger:    logger,
		ExtractIP: ips.ExtractClientIP,
		Route:     routePattern,
		Observer:  m.ObserveRequest,
	})

	r := chi.NewRouter()
	r.Use(tracer.Handler)
	r.Use(recoverJSON)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{trace.HeaderRequestID},
		MaxAge:         300,
	}))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	limited := s.limiter.Middleware(ips.ExtractClientIP, s.handleRateLimited)
	r.With(limited).Post("/expenses", s.handleCreateExpense)
	r.Get("/expenses", s.handleListExpenses)
	r.Get("/expenses/summary", s.handleSummary)
	r.Get("/categories", s.handleCategories)

	s.router = r
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	return s
}

// Shutdown stops accepting requests, waits for in-flight ones and stops
// the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.ledger.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not Found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	resp := NewJSONResponse().Status(http.StatusMethodNotAllowed).Detail("Method Not Allowed")
	if allowed := allowedMethods(s.router, r.URL.Path); len(allowed) > 0 {
		resp.Header("Allow", strings.Join(allowed, ", "))
	}
	resp.Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded", log.FieldPath, r.URL.Path)
	writeDetail(w, http.StatusTooManyRequests, "Rate limit exceeded")
}
