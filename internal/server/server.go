// Package server exposes package metadata, download series and charts over HTTP,
// plus a small set of HTML pages.
package server

import (
	"context"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/klauspost/compress/gzhttp"

	"github.com/git-pkgs/npmchart/internal/cache"
	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/view"
)

// Server serves the npmchart API and pages for one source.
type Server struct {
	src   core.Source
	log   log.Interface
	pages *template.Template
	now   func() time.Time

	maxPoints    int
	chartWidth   int
	chartHeight  int
	defaultColor string
	popular      []string

	breakers   func() map[string]string
	cacheStats func() cache.Stats

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is the apex/log package logger.
func WithLogger(l log.Interface) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithMaxPoints sets the plotting budget for charts and pages.
func WithMaxPoints(n int) Option {
	return func(s *Server) {
		s.maxPoints = n
	}
}

// WithChartSize sets the rendered chart size in pixels.
func WithChartSize(width, height int) Option {
	return func(s *Server) {
		s.chartWidth = width
		s.chartHeight = height
	}
}

// WithDefaultColor sets the chart color used when a request does not pick one.
func WithDefaultColor(c string) Option {
	return func(s *Server) {
		if view.ValidColor(c) {
			s.defaultColor = c
		}
	}
}

// WithPopular sets the packages linked from the home page.
func WithPopular(names []string) Option {
	return func(s *Server) {
		s.popular = names
	}
}

// WithBreakerState reports upstream circuit breaker state on /health.
func WithBreakerState(fn func() map[string]string) Option {
	return func(s *Server) {
		s.breakers = fn
	}
}

// WithCacheStats reports cache activity on /health.
func WithCacheStats(fn func() cache.Stats) Option {
	return func(s *Server) {
		s.cacheStats = fn
	}
}

// WithTimeouts sets the read and write timeouts used by ListenAndServe.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// New creates a server reading from src.
func New(src core.Source, opts ...Option) *Server {
	s := &Server{
		src:          src,
		log:          log.Log,
		pages:        pageTemplates,
		now:          time.Now,
		maxPoints:    core.DefaultMaxPoints,
		defaultColor: view.DefaultColor,
		readTimeout:  10 * time.Second,
		writeTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the root handler with all routes and middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/npm-package", s.api(s.handlePackage))
	mux.Handle("GET /api/npm-downloads", s.api(s.handleDownloads))
	mux.Handle("GET /api/npm-chart.svg", s.api(s.handleChart))
	mux.Handle("GET /api/npm-chart.png", s.api(s.handleChart))
	mux.Handle("GET /health", s.api(s.handleHealth))

	mux.Handle("GET /{$}", s.page(s.handleHome))
	mux.Handle("GET /search", s.page(s.handleSearch))
	mux.Handle("GET /package/{name...}", s.page(s.handlePackagePage))

	return s.wrap(mux)
}

// wrap applies the middleware chain. Request logging sits outside panic
// recovery so a recovered request is still logged with its 500.
func (s *Server) wrap(h http.Handler) http.Handler {
	h = s.recoverPanics(h)
	h = s.logRequests(h)
	h = requestID(h)
	return gzhttp.GzipHandler(h)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		// Requests outlive ctx so Shutdown can drain them.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
