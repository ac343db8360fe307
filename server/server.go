package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RIZZZIOM/TinyFlaw/logger"
)

// ReadHeaderTimeout bounds reading request headers; responses have no write timeout
const ReadHeaderTimeout = 15 * time.Second

// Server wraps an HTTP server with our configuration
type Server struct {
	httpServer *http.Server
	router     *Router
	logger     *logger.Logger

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// New creates a new server instance.
// host specifies the interface to bind to (e.g., "127.0.0.1" for localhost only, "0.0.0.0" for all interfaces)
func New(host string, port int, router *Router, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(host, fmt.Sprint(port)),
			Handler:           router,
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
		router: router,
		logger: log,
		ready:  make(chan struct{}),
	}
}

// Router returns the server's router
func (s *Server) Router() *Router {
	return s.router
}

// Listen binds the listening socket with SO_REUSEADDR
func (s *Server) Listen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.listener = ln
	close(s.ready)
	return nil
}

// Ready is closed once the server is listening
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Start listens if needed and serves until the server is stopped
func (s *Server) Start() error {
	if err := s.Listen(context.Background()); err != nil {
		return err
	}

	s.logger.Info("server listening", zap.String("address", "http://"+s.Addr()))

	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
