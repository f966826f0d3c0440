// Package server provides the HTTP API for suisen.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/suisen/internal/config"
	"github.com/hyperjump/suisen/internal/extract"
	"github.com/hyperjump/suisen/internal/metrics"
	"github.com/hyperjump/suisen/internal/search"
	"github.com/hyperjump/suisen/internal/storage"
)

// APIVersion is reported by the root endpoint.
const APIVersion = "1.0.0"

// maxUploadBytes bounds job description uploads.
const maxUploadBytes = 10 << 20

// Server is the HTTP server for the suisen API.
type Server struct {
	engine    *search.Engine
	extractor *extract.Extractor
	storage   storage.Storage
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil when
// the catalog is served from files.
func NewServer(
	engine *search.Engine,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:    engine,
		extractor: extract.NewExtractor(),
		storage:   store,
		config:    cfg,
		logger:    logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	timeout := time.Duration(s.config.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Get("/test", s.handleSample)
	r.Post("/recommend", s.handleRecommend)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommend", s.handleRecommend)
		r.Post("/recommend/file", s.handleRecommendFile)
		r.Get("/assessments", s.handleListAssessments)
		r.Get("/assessments/{id}", s.handleGetAssessment)
		r.Get("/status", s.handleStatus)
		r.Post("/reindex", s.handleReindex)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	metrics.Register()
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
