package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/0xsj/overwatch-pkg/httputil"
	"github.com/0xsj/overwatch-pkg/log"
)

// ServerConfig holds configuration for the payments HTTP server.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	WriteTimeout    time.Duration
}

// Address returns the server address.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the server configuration.
func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Server wraps the pkg httputil.Server for the payments service.
type Server struct {
	server *httputil.Server
	logger log.Logger
}

// NewServer creates a new payments HTTP server.
func NewServer(cfg ServerConfig, handler http.Handler, logger log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	sc := httputil.DefaultServerConfig().WithAddress(cfg.Address())
	if cfg.ShutdownTimeout > 0 {
		sc = sc.WithShutdownTimeout(cfg.ShutdownTimeout)
	}
	// A round may wait on several downstream calls
	if cfg.WriteTimeout > 0 {
		sc = sc.WithWriteTimeout(cfg.WriteTimeout)
	}

	return &Server{
		server: httputil.NewServer(handler, sc, logger),
		logger: logger,
	}, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting payments HTTP server",
		log.String("address", s.server.Config().Address),
	)
	return s.server.Start(ctx)
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping payments HTTP server")
	return s.server.Shutdown(ctx)
}

// Address returns the server's listen address.
func (s *Server) Address() string {
	return s.server.Address()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	return s.server.IsRunning()
}
