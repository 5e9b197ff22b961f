package lsp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// ServeStdio serves a single session over stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving", zap.String("transport", "stdio"))
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(stdrwc{}))
	return s.ServeStream(ctx, conn)
}

// ServeTCP listens on addr and serves every accepted connection as its own
// session. A positive idleTimeout stops the server once no client has been
// connected for that long.
func (s *Server) ServeTCP(ctx context.Context, addr string, idleTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, idleTimeout)
}

// Serve accepts connections from ln until ctx is done or the idle timeout
// fires. It closes ln before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener, idleTimeout time.Duration) error {
	defer ln.Close()
	s.logger.Info("serving", zap.String("transport", "tcp"), zap.String("addr", ln.Addr().String()))

	err := jsonrpc2.Serve(ctx, ln, s, idleTimeout)
	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, jsonrpc2.ErrIdleTimeout):
		s.logger.Info("idle timeout reached", zap.Duration("timeout", idleTimeout))
		return nil
	}
	return err
}

// stdrwc implements io.ReadWriteCloser for stdin/stdout
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
