package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
)

// Server is the HTTP debug API. Every request that reads or changes the
// page state goes through the loop, so it is ordered with display events
// and telemetry.
type Server struct {
	loop     *hmi.Loop
	registry *hmi.Registry
	hub      *hub
	router   *gin.Engine
}

// New creates the API for engine. It must be called before loop.Run
// starts, since it registers a page change observer on the engine.
func New(loop *hmi.Loop, engine *hmi.Engine) *Server {
	s := &Server{
		loop:     loop,
		registry: engine.Registry(),
		hub:      newHub(),
	}
	engine.OnPageChange(func(pc hmi.PageChange) {
		s.hub.broadcast(newPageEvent(pc))
	})
	s.initRouter()
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) initRouter() {
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger())

	api := s.router.Group("/api")
	{
		api.GET("/state", s.handleState)
		api.GET("/pages", s.handlePages)
		api.POST("/touch", s.handleTouch)
		api.POST("/numeric", s.handleNumeric)
		api.POST("/page/:id", s.handleChangePage)
		api.GET("/events", s.handleEvents)
	}
}

// Serve listens on addr until ctx is cancelled
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Debug API listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("debug API: %w", err)
	case <-ctx.Done():
	}

	logging.Info("Shutting down debug API...")
	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Debug API shutdown timeout, forcing close", zap.Error(err))
		return srv.Close()
	}
	return nil
}

// requestLogger logs each request at debug level
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("API request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
