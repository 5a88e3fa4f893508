package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"slider/internal/service"
	slidererr "slider/pkg/errors"
)

// Version is reported by the OpenAPI document and /health.
var Version = "dev"

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Services are the backend components the routes call into.
type Services struct {
	Store        *service.RetrievalStore
	Orchestrator *service.Orchestrator
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Server wraps a chi router with huma API and HTTP server.
type Server struct {
	router   chi.Router
	api      huma.API
	cfg      Config
	services Services
	logger   *zap.Logger
}

// New creates a Server with routes for the retrieval store, the intent
// classifier and the chat orchestrator.
func New(cfg Config, svc Services) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, slidererr.New(slidererr.CodeServerConfigInvalid, "listen address is required")
	}
	if svc.Store == nil || svc.Orchestrator == nil {
		return nil, slidererr.New(slidererr.CodeServerConfigInvalid, "store and orchestrator are required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 120 * time.Second
	}
	logger := svc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(corsMiddleware(cfg.CORSOrigins))

	if svc.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	humaConfig := huma.DefaultConfig("Slider", Version)
	humaConfig.Info.Description = "Conversation memory, intent classification and chat for the Slider add-in"
	api := humachi.New(r, humaConfig)

	s := &Server{router: r, api: api, cfg: cfg, services: svc, logger: logger}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return slidererr.Wrapf(err, slidererr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return slidererr.Wrap(err, slidererr.CodeServerStartFailure, "serving http")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return slidererr.Wrap(err, slidererr.CodeServerShutdownFailure, "shutting down")
	}
	return <-errCh
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"https://localhost:3000"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
