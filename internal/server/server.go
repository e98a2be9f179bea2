// Package server exposes interview sessions over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/interview"
	"github.com/safdarjung/resume-interview/internal/logger"
)

const (
	DefaultListen   = ":8080"
	shutdownTimeout = 30 * time.Second
)

// Server serves the interview API.
type Server struct {
	store     *Store
	assistant interview.Assistant
	model     ai.Choice
	logger    *zap.Logger
}

// New creates a server whose sessions start with the given model selection.
func New(assistant interview.Assistant, model ai.Choice, log *zap.Logger) *Server {
	if !model.Valid() {
		model = ai.DefaultChoice
	}
	return &Server{
		store:     NewStore(),
		assistant: assistant,
		model:     model,
		logger:    logger.WithFields(log),
	}
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	router.MaxMultipartMemory = maxUploadMemory

	router.GET("/healthz", s.health)

	api := router.Group("/api/sessions")
	{
		api.POST("", s.createSession)
		api.GET("/:id", s.getSession)
		api.DELETE("/:id", s.deleteSession)
		api.PUT("/:id/resume", s.uploadResume)
		api.PUT("/:id/model", s.selectModel)
		api.POST("/:id/answer", s.submitAnswer)
		api.POST("/:id/clarify", s.clarify)
		api.POST("/:id/advance", s.advance)
		api.GET("/:id/report", s.report)
	}

	return router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultListen
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.String("listen", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func (s *Server) newSession(id string) *interview.Session {
	log := s.logger.With(zap.String(logger.FieldSession, id))
	return interview.NewSession(s.assistant, s.model, log)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String(logger.FieldSession, id))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("request failed", fields...)
			return
		}
		log.Debug("request handled", fields...)
	}
}
