// Package server exposes the document pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docextract/internal/logger"
)

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	MaxUploadBytes int64
}

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 15 * time.Second

// Server wraps the gin router and the underlying http.Server.
type Server struct {
	cfg    Config
	engine *gin.Engine
	log    zerolog.Logger
}

// New builds the router with all routes registered.
func New(cfg Config, h *Handler) *Server {
	return &Server{
		cfg:    cfg,
		engine: NewRouter(h, cfg.MaxUploadBytes),
		log:    logger.WithComponent("server"),
	}
}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(h *Handler, maxUploadBytes int64) *gin.Engine {
	r := gin.New()
	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog())

	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)

	api := r.Group("/api")
	{
		api.POST("/ocr/process", h.ProcessOCR)

		docs := api.Group("/documents")
		docs.POST("/classify", h.Classify)
		docs.POST("/parse", h.Parse)
	}

	return r
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
