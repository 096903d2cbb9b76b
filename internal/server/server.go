package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"messagely/internal/auth"
	"messagely/internal/messages"
	"messagely/internal/metrics"
	"messagely/internal/users"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Deps holds services the HTTP handlers delegate to
type Deps struct {
	Auth     *auth.Service
	Tokens   *auth.Tokens
	Messages *messages.Service
	Users    *users.Service
	Metrics  *metrics.Collector
	// Gatherer is exposed on /metrics when not nil
	Gatherer prometheus.Gatherer
}

// Server defines fields used in HTTP processing
type Server struct {
	logger        *zap.SugaredLogger
	httpServer    *http.Server
	afterShutdown []func()
}

// NewServer returns new Server struct with provided zap.SugaredLogger and services
func NewServer(logger *zap.SugaredLogger, deps Deps, opts ...Option) (*Server, error) {
	if deps.Auth == nil || deps.Tokens == nil || deps.Messages == nil || deps.Users == nil || deps.Metrics == nil {
		return nil, errors.New("server: auth, tokens, messages, users and metrics dependencies are required")
	}

	c := &config{
		httpServer: &http.Server{Addr: "0.0.0.0:9000"},
	}
	for _, opt := range opts {
		opt.apply(c)
	}

	h := &handler{
		logger:   logger,
		auth:     deps.Auth,
		tokens:   deps.Tokens,
		messages: deps.Messages,
		users:    deps.Users,
		metrics:  deps.Metrics,
	}

	root := h.routes(deps.Gatherer)
	if c.handlerTimeout > 0 {
		root = http.TimeoutHandler(root, c.handlerTimeout, errorBody(http.StatusServiceUnavailable, "Request timed out"))
	}
	c.httpServer.Handler = root

	return &Server{
		logger:        logger,
		httpServer:    c.httpServer,
		afterShutdown: c.afterShutdown,
	}, nil
}

// Start calls ListenAndServe on http.Server instance inside Server struct
// and implements graceful shutdown via goroutine waiting for signals
func (s *Server) Start() error {
	idleConnsClosed := make(chan struct{})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		s.logger.Info("Shutting down HTTP server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Errorf("srv.Shutdown: %v", err)
		}
		s.logger.Info("HTTP server is stopped")

		close(idleConnsClosed)
	}()

	s.logger.Infof("Starting HTTP server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("s.httpServer.ListenAndServe: %v", err)
	}

	<-idleConnsClosed

	for _, f := range s.afterShutdown {
		f()
	}

	return nil
}
