package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HTTPServer runs the API handler on one listener with sane timeouts.
type HTTPServer struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewHTTPServer creates an HTTP server for the given handler.
func NewHTTPServer(addr string, handler http.Handler, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPServer{
		logger: logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start starts the server in a blocking manner. Call in a goroutine for
// non-blocking operation.
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.httpServer.Addr
}
