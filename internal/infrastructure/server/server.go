package server

import (
	"context"
	"errors"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/api/http"
	"github.com/GriffinCanCode/homefs/internal/api/middleware"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/config"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/homefs/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Deps are the components the server routes to
type Deps struct {
	Registry *service.Registry
	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
	// Tracer may be nil.
	Tracer *tracing.Tracer
}

// Server wraps the HTTP server and dependencies
type Server struct {
	router *gin.Engine
	logger *logging.Logger
	config *config.Config
}

// NewServer builds the router with middleware and routes
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if deps.Tracer != nil {
		router.Use(tracing.HTTPMiddleware(deps.Tracer))
	}
	router.Use(monitoring.Middleware(deps.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitFromConfig(cfg.RateLimit)))
	}

	handlers := http.NewHandlers(deps.Registry, cfg.Sandbox.Root, logger.Logger)
	metricsHandlers := http.NewMetricsHandlers(deps.Metrics, deps.Gatherer)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Service management
	router.GET("/services", handlers.ListServices)
	router.POST("/services/discover", handlers.DiscoverServices)
	router.POST("/services/execute", handlers.ExecuteService)

	// Tools
	router.GET("/tools", handlers.ListTools)
	router.GET("/tools/:id", handlers.GetTool)
	router.POST("/tools/:id", handlers.ExecuteTool)

	// Metrics endpoints
	router.GET("/metrics", metricsHandlers.Prometheus())
	router.GET("/metrics/json", metricsHandlers.Summary)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		logger: logger,
		config: cfg,
	}
}

// Handler exposes the router, mainly for httptest
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Addr is the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &nethttp.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server",
			zap.String("addr", srv.Addr),
			zap.String("root", s.config.Sandbox.Root))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// Close flushes the logger
func (s *Server) Close() error {
	_ = s.logger.Sync()
	return nil
}
