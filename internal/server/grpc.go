package server

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// GRPCService serves a grpc.Server on a TCP address as a Service.
type GRPCService struct {
	addr    string
	srv     *grpc.Server
	timeout time.Duration
	logger  *zap.Logger

	ready chan net.Addr
}

// NewGRPCService creates a GRPCService. Stop waits up to timeout for
// in-flight calls before forcing the server closed.
//
// Precondition: srv and logger must be non-nil.
func NewGRPCService(addr string, srv *grpc.Server, timeout time.Duration, logger *zap.Logger) *GRPCService {
	return &GRPCService{
		addr:    addr,
		srv:     srv,
		timeout: timeout,
		logger:  logger,
		ready:   make(chan net.Addr, 1),
	}
}

// Ready receives the bound address once the listener is open.
func (s *GRPCService) Ready() <-chan net.Addr { return s.ready }

// Start listens on the configured address and serves until Stop.
func (s *GRPCService) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
	s.ready <- lis.Addr()
	if err := s.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop drains in-flight calls, then closes the server.
func (s *GRPCService) Stop() {
	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.timeout):
		s.logger.Warn("graceful stop timed out", zap.Duration("timeout", s.timeout))
		s.srv.Stop()
	}
}
