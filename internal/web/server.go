// Package web serves the keep-alive endpoints hosting platforms poll.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// Server is the keep-alive HTTP server.
type Server struct {
	router  *gin.Engine
	clock   clockwork.Clock
	started time.Time
	version string
}

// NewServer creates the router with / and /healthz.
func NewServer(version string, clock clockwork.Clock) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:  router,
		clock:   clock,
		started: clock.Now(),
		version: version,
	}

	router.GET("/", s.handleIndex)
	router.HEAD("/", s.handleIndex)
	router.GET("/healthz", s.handleHealth)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.String(http.StatusOK, "Bot is running")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
		"uptime":  s.clock.Since(s.started).Round(time.Second).String(),
	})
}
