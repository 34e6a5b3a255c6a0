// Package server exposes the pipeline over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ibeckermayer/replyloop/internal/app"
	"github.com/ibeckermayer/replyloop/internal/scheduler"
	"github.com/ibeckermayer/replyloop/internal/types"
)

const shutdownTimeout = 30 * time.Second

// Pipeline is the part of app.App the HTTP surface drives
type Pipeline interface {
	Status() app.Status
	Collect(ctx context.Context, scrollCount int) ([]types.Item, error)
	Items() ([]types.Item, error)
	Analyze(ctx context.Context) (*types.Result, error)
	Result() (*types.Result, error)
	Confirm(ctx context.Context, editedReply string) (*types.Result, error)
	Restart() error
	UserMessage(err error) string
}

// JobLister reports scheduled jobs; nil when no schedule is configured
type JobLister interface {
	ListJobs() []scheduler.JobInfo
}

type handlers struct {
	pipeline Pipeline
	jobs     JobLister
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(pipeline Pipeline, jobs JobLister) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := &handlers{pipeline: pipeline, jobs: jobs}

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	g := r.Group("/api")
	g.GET("/status", h.handleStatus)
	g.POST("/fetch", h.handleFetch)
	g.GET("/items", h.handleItems)
	g.POST("/analyze", h.handleAnalyze)
	g.GET("/results", h.handleResults)
	g.POST("/confirm", h.handleConfirm)
	g.POST("/restart", h.handleRestart)
	return r
}

// Run serves handler on addr until ctx is done, then shuts down gracefully
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}

// requestLogger logs one line per request
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	}
}
