package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	pkggrpc "github.com/0xsj/overwatch-pkg/grpc"
	"github.com/0xsj/overwatch-pkg/log"
)

// ServerConfig holds configuration for the payments gRPC server.
type ServerConfig struct {
	Host              string
	Port              int
	EnableReflection  bool
	EnableHealthCheck bool
}

// Address returns the server address.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the server configuration. Port 0 picks a free port.
func (c ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Server wraps the pkg gRPC server for the payments service.
type Server struct {
	server   *pkggrpc.Server
	sessions *SessionService
	logger   log.Logger
}

// NewServer creates a new payments gRPC server. A nil parser leaves the
// session service unauthenticated.
func NewServer(cfg ServerConfig, sessions *SessionService, parser TokenParser, logger log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	sc := pkggrpc.DefaultServerConfig().
		WithAddress(cfg.Address()).
		WithReflection(cfg.EnableReflection).
		WithHealthCheck(cfg.EnableHealthCheck)

	server, err := pkggrpc.NewServer(
		pkggrpc.WithServerConfig(sc),
		pkggrpc.WithServerLogger(logger),
		pkggrpc.WithUnaryInterceptors(unaryInterceptors(parser, logger)...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc server: %w", err)
	}

	s := &Server{
		server:   server,
		sessions: sessions,
		logger:   logger,
	}
	s.RegisterServices()
	return s, nil
}

// RegisterServices registers the payment session service.
func (s *Server) RegisterServices() {
	s.server.RegisterService(&PaymentSessionServiceDesc, s.sessions)
}

// Start starts the gRPC server. It blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting payments gRPC server", log.String("address", s.server.Address()))
	return s.server.Start(ctx)
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Stop(ctx)
}

// GRPCServer returns the underlying grpc.Server.
func (s *Server) GRPCServer() *grpc.Server {
	return s.server.Server()
}

// Address returns the listen address once started.
func (s *Server) Address() string {
	return s.server.Address()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	return s.server.IsRunning()
}
