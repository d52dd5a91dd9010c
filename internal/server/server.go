// Package server runs HTTP and gRPC servers until their context is done.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/go-sod/sensord/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type Option func(*Server)

// WithMaxConns bounds the number of simultaneously accepted connections.
// Zero means unbounded.
func WithMaxConns(n int) Option {
	return func(s *Server) {
		s.maxConns = n
	}
}

type Server struct {
	addr     string
	maxConns int
	listener net.Listener
}

func New(addr string, opts ...Option) (*Server, error) {
	s := &Server{addr: addr}
	for _, f := range opts {
		f(s)
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on %s: %w", addr, err)
	}
	if s.maxConns > 0 {
		listener = netutil.LimitListener(listener, s.maxConns)
	}
	s.listener = listener
	return s, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close releases the listener of a server that was never served.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) ServeHTTP(ctx context.Context, srv *http.Server) error {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()

		logger.Debugf("server.Serve: context closed")
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()

		logger.Debugf("server.Serve: shutting down")
		errCh <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	logger.Debugf("server.Serve: serving stopped")
	if err := <-errCh; err != nil {
		return fmt.Errorf("failed to shutdown: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTPHandler(ctx context.Context, handler http.Handler) error {
	return s.ServeHTTP(ctx, &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	})
}

// ServeGRPC serves srv with the standard health service registered and
// reporting SERVING until ctx is done.
func (s *Server) ServeGRPC(ctx context.Context, srv *grpc.Server) error {
	logger := logging.FromContext(ctx)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		logger.Debugf("server.ServeGRPC: context closed")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	logger.Debugf("server.ServeGRPC: serving on %s", s.Addr())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve grpc: %w", err)
	}
	logger.Debugf("server.ServeGRPC: serving stopped")
	return nil
}
