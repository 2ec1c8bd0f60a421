package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// trainerService is the health service name reported while training runs.
const trainerService = "match3.v1.Trainer"

// statusServer exposes training progress through the standard gRPC health
// protocol: SERVING while episodes run, NOT_SERVING once training stops.
type statusServer struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
}

func newStatusServer(host string, port int, enableReflection bool) (*statusServer, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("listen for status server: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor, recoveryInterceptor),
		grpc.ChainStreamInterceptor(streamLoggingInterceptor, streamRecoveryInterceptor),
	)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)

	if enableReflection {
		reflection.Register(srv)
		log.Info().Msg("gRPC reflection enabled")
	}

	return &statusServer{grpc: srv, health: hs, lis: lis}, nil
}

func (s *statusServer) Addr() string { return s.lis.Addr().String() }

func (s *statusServer) Serve() {
	log.Info().Str("address", s.Addr()).Msg("Status server listening")
	if err := s.grpc.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		log.Error().Err(err).Msg("Status server stopped serving")
	}
}

func (s *statusServer) SetServing(serving bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(trainerService, st)
}

// Stop reports NOT_SERVING, waits grace for probes to see it, then stops.
func (s *statusServer) Stop(grace time.Duration) {
	s.SetServing(false)
	time.Sleep(grace)
	log.Info().Msg("Gracefully stopping status server")
	s.grpc.GracefulStop()
}

// loggingInterceptor logs all unary RPC calls
func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	log.Debug().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("gRPC call")
	return resp, err
}

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("method", info.FullMethod).
				Interface("panic", r).
				Msg("Recovered from panic in gRPC handler")
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// streamLoggingInterceptor logs health Watch streams
func streamLoggingInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)

	log.Debug().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("gRPC stream")
	return err
}

func streamRecoveryInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("method", info.FullMethod).
				Interface("panic", r).
				Msg("Recovered from panic in gRPC stream handler")
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(srv, ss)
}
