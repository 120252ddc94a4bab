// Package http wraps the standard http.Server with the lifecycle the
// service mains use: start in the background, stop gracefully on signal.
package http

import (
	"context"
	"net/http"
)

// DefaultAddr is used when no listen address is configured.
const DefaultAddr = ":8080"

// Server is a thin wrapper around http.Server.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server for the given address and handler. An empty
// address selects DefaultAddr.
func NewServer(addr string, handler http.Handler) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe blocks serving requests until Shutdown is called or the
// listener fails. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully, waiting for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
