// Package server runs the gRPC endpoint. It carries the standard health
// service, mirrored from the HTTP health checks, plus reflection for tooling.
package server

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/kevin07696/recurringhub/pkg/observability"
)

// ServiceName is the health service name reported alongside the overall status
const ServiceName = "recurringhub.v1.Billing"

// Config configures the gRPC server
type Config struct {
	Port             string
	EnableReflection bool
}

// Server wraps a grpc.Server and its health service
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
	cfg    Config
}

// NewServer creates a gRPC server with the health service registered.
// Both the overall and the named service start NOT_SERVING until SyncHealth runs.
func NewServer(cfg Config, logger *zap.Logger) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor(logger),
			observability.UnaryServerInterceptor(),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	if cfg.EnableReflection {
		reflection.Register(s)
	}

	return &Server{grpc: s, health: hs, logger: logger, cfg: cfg}
}

// Serve accepts connections on lis until the server stops
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("address", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Start listens on the configured port and serves in the background
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return fmt.Errorf("grpc listen on %s: %w", s.cfg.Port, err)
	}

	go func() {
		if err := s.Serve(lis); err != nil {
			s.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()
	return nil
}

// SyncHealth runs the health checks once and publishes the result
func (s *Server) SyncHealth(ctx context.Context, checker *observability.HealthChecker) {
	result := checker.Check(ctx)

	serving := healthpb.HealthCheckResponse_SERVING
	if result.Status != "healthy" {
		serving = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("Health check failing", zap.Any("checks", result.Checks))
	}
	s.health.SetServingStatus("", serving)
	s.health.SetServingStatus(ServiceName, serving)
}

// Shutdown marks the server NOT_SERVING and drains it. In-flight RPCs are
// cut off if ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpc.Stop()
		return ctx.Err()
	}
}

// recoveryInterceptor turns handler panics into codes.Internal
func recoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("gRPC handler panic",
					zap.String("method", info.FullMethod),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
