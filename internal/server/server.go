package server

import (
	"context"
	"errors"
	"net/http"

	"changerisk/internal/configuration"
)

// Server encapsulates the HTTP server of the application, providing controlled startup and shutdown.
type Server struct {
	// server: HTTP server from net/http package, fully configured and ready to use.
	server *http.Server
}

// ListenAndServe starts the HTTP server and blocks until it stops.
// Returns nil when the server was stopped via Shutdown.
func (s *Server) ListenAndServe() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, letting active requests finish within the
// deadline of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// NewServer creates and configures a new server instance.
// Sets read and write timeouts from configuration and limits header size.
func NewServer(cfg configuration.ServerConfig, router *ApiRouter) *Server {
	s := Server{&http.Server{
		Addr:           cfg.Address,
		Handler:        router.Mux(),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1024 * 10,
	}}

	return &s
}
