// Package server exposes session readiness over the standard gRPC health
// protocol.
package server

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/ekisa-team/llamaterm/internal/backend"
)

// SessionService is the health service name that tracks session readiness.
const SessionService = "llamaterm.v1.Session"

// StateSource reports supervisor state changes. *backend.Supervisor
// implements it.
type StateSource interface {
	State() backend.State
	Observe(fn func(backend.State))
}

// Server is a gRPC server carrying the health and reflection services.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	addr   string
}

// New creates a server whose session health follows src.
func New(addr string, src StateSource, opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		addr:   addr,
	}

	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.setSessionStatus(src.State())
	src.Observe(s.setSessionStatus)

	return s
}

func (s *Server) setSessionStatus(state backend.State) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if state == backend.StateReady {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus(SessionService, status)
	slog.Debug("Session health updated", "state", state, "status", status)
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC health server listening", "addr", lis.Addr().String())

	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and serves.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains open RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
