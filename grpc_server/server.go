package grpcserver

import (
	"context"
	"net"
	"time"

	"recipe-restful/interceptors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server is the gRPC side of the service: the standard health protocol,
// whose status follows database readiness, and token-protected reflection.
type Server struct {
	grpcServer  *grpc.Server
	health      *health.Server
	serviceName string
	logger      *zap.Logger
}

func NewServer(serviceName string, logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.ZapLoggingInterceptor(logger),
			interceptors.AuthInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			interceptors.ZapStreamLoggingInterceptor(logger),
			interceptors.StreamAuthInterceptor(),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	s := &Server{grpcServer: grpcServer, health: healthServer, serviceName: serviceName, logger: logger}
	s.SetServing(false)
	return s
}

// SetServing reports the overall and per-service health status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.serviceName, status)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("address", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// GracefulStop marks every service NOT_SERVING and drains open calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// WatchDatabase pings every interval and mirrors the outcome into the health
// status until ctx is done. Status changes are logged.
func (s *Server) WatchDatabase(ctx context.Context, ping func(context.Context) error, interval time.Duration) {
	serving := false
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err := ping(pingCtx)
		cancel()

		if ok := err == nil; ok != serving {
			serving = ok
			s.SetServing(ok)
			if ok {
				s.logger.Info("Database reachable, gRPC health SERVING")
			} else {
				s.logger.Warn("Database unreachable, gRPC health NOT_SERVING", zap.Error(err))
			}
		}
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
