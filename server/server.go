// Package server serves the comparison endpoint over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mhpenta/showdown"
	"github.com/mhpenta/showdown/api"
	"github.com/mhpenta/showdown/metrics"
)

const requestIDHeader = "X-Request-ID"

// Config holds the HTTP server settings.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// CompareTimeout bounds a single comparison; zero means no bound.
	CompareTimeout time.Duration

	CORS CORSConfig
}

// CORSConfig mirrors the gin-contrib/cors settings exposed through configuration.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a structured logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records request and comparison metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server exposes a Comparer on POST /api/compare.
type Server struct {
	cfg      Config
	comparer showdown.Comparer
	catalog  *showdown.Catalog
	logger   *slog.Logger
	metrics  *metrics.Metrics
	router   *gin.Engine
}

// New builds the server and its routes.
func New(cfg Config, comparer showdown.Comparer, catalog *showdown.Catalog, opts ...Option) *Server {
	if catalog == nil {
		catalog = showdown.DefaultCatalog()
	}
	s := &Server{
		cfg:      cfg,
		comparer: comparer,
		catalog:  catalog,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured port until ctx is cancelled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return <-errCh
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.Use(cors.New(s.corsConfig()))

	router.GET(api.HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})
	if s.metrics != nil {
		router.GET(api.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}

	router.POST(api.ComparePath, s.handleCompare)
	router.GET(api.ModelsPath, s.handleModels)

	return router
}

func (s *Server) corsConfig() cors.Config {
	cfg := s.cfg.CORS
	cc := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}
	if len(cc.AllowOrigins) == 0 {
		cc.AllowOrigins = nil
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
	}
	if len(cc.AllowMethods) == 0 {
		cc.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(cc.AllowHeaders) == 0 {
		cc.AllowHeaders = []string{"Origin", "Content-Type", requestIDHeader}
	}
	return cc
}

// requestLogger logs each request and feeds the HTTP metrics.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), elapsed)
		}
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

func (s *Server) handleCompare(c *gin.Context) {
	var body api.CompareRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.CompareResponse{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	req, err := showdown.NewComparisonRequest(body.Prompt, body.Models)
	if err == nil {
		err = showdown.ValidateCatalogIDs(s.catalog, body.Models)
	}
	if err != nil {
		s.observe(nil, err, 0)
		c.JSON(http.StatusBadRequest, api.CompareResponse{Success: false, Error: err.Error()})
		return
	}

	requestID := c.GetHeader(requestIDHeader)
	if _, perr := uuid.Parse(requestID); perr != nil {
		requestID = req.ID()
	}
	c.Header(requestIDHeader, requestID)

	ctx := c.Request.Context()
	if s.cfg.CompareTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CompareTimeout)
		defer cancel()
	}

	if s.metrics != nil {
		s.metrics.ComparisonsInFlight.Inc()
		defer s.metrics.ComparisonsInFlight.Dec()
	}

	start := time.Now()
	results, err := s.comparer.Compare(ctx, req)
	s.observe(results, err, time.Since(start))

	if err != nil {
		status := http.StatusOK
		if showdown.IsValidationError(err) {
			status = http.StatusBadRequest
		}
		s.logger.Error("comparison failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		c.JSON(status, api.CompareResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.CompareResponse{
		Success: true,
		Results: api.FromResults(results),
	})
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, api.ModelsResponse{
		Success: true,
		Models:  s.catalog.Providers(),
	})
}

func (s *Server) observe(results []showdown.ProviderResult, err error, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveComparison(results, err, elapsed)
	}
}
