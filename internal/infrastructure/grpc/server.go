package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/config"
	pkglogger "github.com/wekeepgrowing/mailshield/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall status
const ServiceName = "mailshield.v1.Billing"

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	pinger   Pinger
	listener net.Listener
	stop     chan struct{}
}

func NewServer(cfg *config.Config, pinger Pinger, logger *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		server: grpc.NewServer(pkglogger.GrpcServerOptions(logger)...),
		health: health.NewServer(),
		pinger: pinger,
		stop:   make(chan struct{}),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	return s
}

func (s *Server) Start() error {
	addr := s.config.Server.GRPC.Addr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener and keeps the health status in sync
// with the database.
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener
	s.refreshHealth()
	go s.watchHealth(15 * time.Second)

	s.logger.Info("Starting gRPC server", zap.String("address", listener.Addr().String()))
	return s.server.Serve(listener)
}

func (s *Server) watchHealth(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refreshHealth()
		case <-s.stop:
			return
		}
	}
}

func (s *Server) refreshHealth() {
	status := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.pinger.PingContext(ctx); err != nil {
			s.logger.Warn("Database unreachable, reporting NOT_SERVING", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
