// Package liveness serves the keep-alive endpoint polled by uptime monitors.
// Every GET answers 200 with a static body; it has no view of bot state.
package liveness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/offerbot/core/buildinfo"
	"github.com/m3rciful/offerbot/core/logger"
)

// Body is the static response body.
const Body = "Bot is running!"

// Options configures the responder.
type Options struct {
	Addr string
	// Metrics mounts the Prometheus handler on /metrics.
	Metrics bool
}

// Server is the liveness HTTP server.
type Server struct {
	opts Options
	srv  *http.Server
	ln   net.Listener
	done chan struct{}
}

// New builds a Server; nothing listens until Start.
func New(opts Options) *Server {
	s := &Server{opts: opts}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           Router(opts.Metrics),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Router returns the chi router behind the server.
func Router(withMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	if withMetrics {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}
	r.Get("/", alive)
	r.Get("/*", alive)
	r.Head("/*", alive)
	return r
}

func alive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("X-Build-Version", buildinfo.Get().Version)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(Body))
}

// Start binds the address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("liveness: listen %s: %w", s.opts.Addr, err)
	}
	s.ln = ln
	s.done = make(chan struct{})

	logger.HTTP.Info("liveness listening",
		slog.String("event", "listen"),
		slog.String("addr", ln.Addr().String()),
		slog.Bool("metrics", s.opts.Metrics),
	)
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("liveness server failed",
				slog.String("event", "serve"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.opts.Addr
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.done == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	<-s.done
	if err != nil {
		return fmt.Errorf("liveness: shutdown: %w", err)
	}
	logger.HTTP.Info("liveness stopped", slog.String("event", "shutdown"))
	return nil
}
