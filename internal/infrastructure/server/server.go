package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	bridgehttp "github.com/aegis-lab/bridge/internal/api/http"
	"github.com/aegis-lab/bridge/internal/api/middleware"
	"github.com/aegis-lab/bridge/internal/domain/launcher"
	"github.com/aegis-lab/bridge/internal/infrastructure/config"
	"github.com/aegis-lab/bridge/internal/infrastructure/logging"
	"github.com/aegis-lab/bridge/internal/infrastructure/monitoring"
	"github.com/aegis-lab/bridge/internal/platform"
)

// ErrAlreadyRunning is returned by Run when another bridge holds the lock.
var ErrAlreadyRunning = errors.New("bridge already running")

const shutdownTimeout = 5 * time.Second

// Option customizes server construction.
type Option func(*options)

type options struct {
	controller platform.WindowController
	starter    platform.Starter
	logger     *logging.Logger
	registry   *prometheus.Registry
	onReady    func(addr net.Addr)
}

// WithController replaces the OS window controller.
func WithController(c platform.WindowController) Option {
	return func(o *options) { o.controller = c }
}

// WithStarter replaces the process starter.
func WithStarter(s platform.Starter) Option {
	return func(o *options) { o.starter = s }
}

// WithLogger sets the logger instead of building one from config.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry registers metrics on reg instead of the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithReadyHook registers fn to run once the bridge holds its lock and is
// listening.
func WithReadyHook(fn func(addr net.Addr)) Option {
	return func(o *options) { o.onReady = fn }
}

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	launcher *launcher.Launcher
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	lock     *flock.Flock
	onReady  func(addr net.Addr)
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	platformLog := logger.Component("platform")
	if o.controller == nil {
		o.controller = platform.NewWindowController(platformLog)
	}
	if o.starter == nil {
		starter := platform.NewStarter()
		starter.OnExit = func(pid int, err error) {
			platformLog.Debug("Launched process exited", zap.Int("pid", pid), zap.Error(err))
		}
		o.starter = starter
	}

	var metrics *monitoring.Metrics
	if o.registry != nil {
		metrics = monitoring.NewMetricsWithRegistry(o.registry, o.registry)
	} else {
		metrics = monitoring.NewMetrics()
	}

	l := launcher.New(o.controller, o.starter, launcher.Options{
		ExecutablePath: cfg.Target.Path,
		ProcessName:    cfg.Target.ProcessName,
		Args:           cfg.Target.Args,
		Timeout:        cfg.ActionTimeout(),
		Dedupe:         cfg.Target.Dedupe,
	}).WithLogger(logger.Component("launcher")).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	// /status/ is an unknown command, not a redirect to /status.
	router.RedirectTrailingSlash = false
	router.HandleMethodNotAllowed = true

	httpLog := logger.Component("http")
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(httpLog))
	router.Use(middleware.Recovery(httpLog))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.JSONContentType())
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := bridgehttp.NewHandlers(l, cfg.Target.Name, httpLog)

	router.GET("/status", handlers.Status)
	router.GET("/print", handlers.Trigger)
	router.NoRoute(handlers.UnknownCommand)
	router.NoMethod(handlers.MethodNotAllowed)

	s := &Server{
		router:   router,
		launcher: l,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		onReady:  o.onReady,
	}
	if cfg.Server.LockPath != "" {
		s.lock = flock.New(cfg.Server.LockPath)
	}

	logger.Info("Server initialized",
		zap.String("target", cfg.Target.Name),
		zap.String("process", cfg.Target.ProcessName),
		zap.String("backend", o.controller.Name()),
	)
	return s, nil
}

// Handler returns the bridge router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's metrics collector.
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Run acquires the single-instance lock, listens on the configured address
// and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.lock != nil {
		ok, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, s.config.Server.LockPath)
		}
		defer func() {
			if err := s.lock.Unlock(); err != nil {
				s.logger.Warn("Failed to release lock", zap.Error(err))
			}
		}()
	}

	addr := s.config.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves the bridge on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var metricsSrv *http.Server
	if s.config.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		metricsSrv = &http.Server{
			Addr:              s.config.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
		s.logger.Info("Metrics listener started", zap.String("addr", s.config.Metrics.Addr))
	}

	s.logger.Info("Bridge listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("target_path", s.config.Target.Path),
	)
	if s.onReady != nil {
		s.onReady(ln.Addr())
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("shutdown: %w", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("Metrics listener shutdown failed", zap.Error(err))
		}
	}
	return serveErr
}

// Close flushes the logger.
func (s *Server) Close() error {
	s.logger.Sync()
	return nil
}
