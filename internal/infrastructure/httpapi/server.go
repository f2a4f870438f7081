package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/metrics"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// Store is what the ops endpoints read.
type Store interface {
	Ping(ctx context.Context) error
	CountByStatus(ctx context.Context) (domain.StatusCounts, error)
}

// Server exposes health, metrics and post statistics.
type Server struct {
	engine *gin.Engine
	store  Store
	logger *slog.Logger
}

// NewServer wires the routes. m may be nil, which disables /metrics.
func NewServer(store Store, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: gin.New(),
		store:  store,
		logger: logger.With("component", "http"),
	}

	s.engine.Use(gin.Recovery(), s.requestLog(m))
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/api/posts/stats", s.postStats)
	if m != nil {
		handler := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
		s.engine.GET("/metrics", gin.WrapH(handler))
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ops server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ops server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown ops server: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "store unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) postStats(c *gin.Context) {
	counts, err := s.store.CountByStatus(c.Request.Context())
	if err != nil {
		s.logger.Error("count posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count posts"})
		return
	}

	byStatus := make(map[string]int, len(domain.Statuses))
	for _, st := range domain.Statuses {
		byStatus[st.String()] = counts.Count(st)
	}
	c.JSON(http.StatusOK, gin.H{"total": counts.Total, "by_status": byStatus})
}

func (s *Server) requestLog(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		if m != nil {
			m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		}
		s.logger.Debug("request", "method", c.Request.Method, "route", route, "status", status, "took", time.Since(start))
	}
}
