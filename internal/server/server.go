// Package server exposes the ingest coordinator over gRPC.
//
// The measurement service has no generated stubs: its ServiceDesc is declared
// by hand and its messages travel as CBOR (see CodecName). The standard health
// service is registered alongside it and keeps the protobuf codec.
package server

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/logger"
	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type Server struct {
	cfg    Config
	grpc   *grpc.Server
	health *health.Server
}

// New builds the gRPC server. Server metrics are registered with reg unless
// it is nil.
func New(cfg Config, ingester Ingester, reg prometheus.Registerer) (*Server, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(errors.ErrInitServer, err)
	}
	if ingester == nil {
		return nil, errFactory.WithMessage(errors.ErrInitServer, "server requires an ingester")
	}

	srvMetrics := grpcprom.NewServerMetrics(
		grpcprom.WithServerHandlingTimeHistogram(
			grpcprom.WithHistogramBuckets([]float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}),
		),
	)
	if reg != nil {
		if err := reg.Register(srvMetrics); err != nil {
			return nil, errFactory.Wrap(errors.ErrInitMetrics, err)
		}
	}

	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			srvMetrics.UnaryServerInterceptor(),
			requestIDInterceptor(),
			logging.UnaryServerInterceptor(InterceptorLogger(),
				logging.WithLogOnEvents(logging.FinishCall)),
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(panicRecoveryHandler)),
		),
	)

	RegisterMeasurementProducerServer(gs, NewMeasurementProducer(ingester))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	srvMetrics.InitializeMetrics(gs)

	logger.Debug().
		Str("listen", cfg.Listen).
		Dur("grace_period", cfg.GracePeriod).
		Msg("gRPC server initialized")

	return &Server{
		cfg:    cfg,
		grpc:   gs,
		health: hs,
	}, nil
}

// ListenAndServe listens on the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return errors.New().Wrap(errors.ErrListen, err)
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis and blocks until the server stops.
func (s *Server) Serve(lis net.Listener) error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	logger.Info().Str("address", lis.Addr().String()).Msg("gRPC server listening")

	if err := s.grpc.Serve(lis); err != nil {
		return errors.New().Wrap(errors.ErrServe, err)
	}
	return nil
}

// Shutdown reports NOT_SERVING, then lets in-flight calls finish for up to
// the grace period before closing every connection.
func (s *Server) Shutdown() {
	s.health.Shutdown()

	forced := time.AfterFunc(s.cfg.GracePeriod, func() {
		logger.Warn().Dur("grace_period", s.cfg.GracePeriod).Msg("Grace period expired, stopping gRPC server")
		s.grpc.Stop()
	})
	defer forced.Stop()

	s.grpc.GracefulStop()
	logger.Info().Msg("gRPC server stopped")
}

// ShutdownHandler returns a function that shuts the server down once ctx is done.
func (s *Server) ShutdownHandler(ctx context.Context) func() error {
	return func() error {
		<-ctx.Done()
		s.Shutdown()
		return nil
	}
}

func panicRecoveryHandler(p any) error {
	logger.Error().
		Str("stack", string(debug.Stack())).
		Msgf("Request triggered panic: %v", p)
	return status.Errorf(codes.Internal, "internal server error caused by %v", p)
}

// InterceptorLogger adapts the package logger to the gRPC logging middleware.
func InterceptorLogger() logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		var e *logger.LogEvent
		switch lvl {
		case logging.LevelDebug:
			e = logger.Debug()
		case logging.LevelInfo:
			e = logger.Info()
		case logging.LevelWarn:
			e = logger.Warn()
		case logging.LevelError:
			e = logger.Error()
		default:
			panic(fmt.Sprintf("unknown level %v", lvl))
		}

		if id, ok := RequestIDFromContext(ctx); ok {
			e.Str("request_id", id)
		}
		e.Fields(fields).Msg(msg)
	})
}
