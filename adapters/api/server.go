package api

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"retainsim/app"
	"retainsim/domain/core"
	"retainsim/domain/policy"
	apperrors "retainsim/internal/errors"
	"retainsim/internal/metrics"
)

// maxBodyBytes bounds a simulate request
const maxBodyBytes = 8 << 20

// Options configures the HTTP server
type Options struct {
	Grid         policy.Grid   // defaults for omitted request fields
	Params       policy.Params // defaults for omitted request fields
	Workers      int
	RateLimitRPS float64 // 0 disables limiting
	CacheSize    int
	MaxWork      int // upper bound on n_mc times grid cells per request; 0 disables
	MaxWorkers   int // upper bound on requested parallelism; below 1 derives it from GOMAXPROCS
}

// Server exposes the simulation service over HTTP
type Server struct {
	service  *app.SimulationService
	opts     Options
	cache    *lru.Cache[core.Hash, SimulateResponse]
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   *chi.Mux
}

// NewServer creates the router. reg receives the HTTP collectors and is
// served on /metrics; m may share it.
func NewServer(service *app.SimulationService, opts Options, reg *prometheus.Registry, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = 1
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = max(runtime.GOMAXPROCS(0), 2, opts.Workers)
	}
	cache, err := lru.New[core.Hash, SimulateResponse](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	s := &Server{
		service:  service,
		opts:     opts,
		cache:    cache,
		metrics:  m,
		gatherer: reg,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	if opts.RateLimitRPS > 0 {
		burst := int(opts.RateLimitRPS * 2)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.recoverer)
	s.router.Use(s.observe)
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/simulate", s.handleSimulate)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, apperrors.NotFound("route "+r.URL.Path))
	})
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then drains for up to 10s
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
