// Package lsp exposes a mock.DocumentService over JSON-RPC. Every connection
// gets its own session whose client dispatcher is registered as a diagnostics
// proxy for as long as the connection lives.
package lsp

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/conduit-lang/mockls/internal/metrics"
	"github.com/conduit-lang/mockls/internal/mock"
	"github.com/google/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// ServerName is reported in the initialize result.
const ServerName = "mockls"

// Server dispatches LSP requests to a mock document service
type Server struct {
	service *mock.DocumentService
	logger  *zap.Logger
	version string
	metrics *metrics.Collector

	// routes maps document methods to their handlers; lifecycle methods are
	// handled per session.
	routes map[string]route

	mu       sync.Mutex
	sessions map[string]*session
}

// session is one client connection
type session struct {
	id     string
	conn   jsonrpc2.Conn
	client protocol.Client

	mu           sync.Mutex
	shutdownSeen bool
}

// NewServer creates a server backed by service
func NewServer(service *mock.DocumentService, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service:  service,
		logger:   logger,
		version:  version,
		metrics:  metrics.NewCollector(),
		sessions: make(map[string]*session),
	}
	s.routes = s.documentRoutes()
	return s
}

// Service returns the document service behind the server.
func (s *Server) Service() *mock.DocumentService {
	return s.service
}

// Metrics returns the collector the server records into.
func (s *Server) Metrics() *metrics.Collector {
	return s.metrics
}

// Sessions returns the number of live connections.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ServeStream implements jsonrpc2.StreamServer. It blocks until the
// connection is closed by the peer, by an exit notification, or by ctx.
func (s *Server) ServeStream(ctx context.Context, conn jsonrpc2.Conn) error {
	sess := s.open(conn)
	defer s.close(sess)

	conn.Go(ctx, s.handler(sess))

	select {
	case <-conn.Done():
	case <-ctx.Done():
		_ = conn.Close()
		<-conn.Done()
	}

	if err := conn.Err(); err != nil && !isClosingError(err) {
		return err
	}
	return nil
}

func (s *Server) open(conn jsonrpc2.Conn) *session {
	sess := &session{
		id:   uuid.New().String(),
		conn: conn,
	}
	sess.client = protocol.ClientDispatcher(conn, s.logger.Named("client").With(zap.String("session", sess.id)))

	s.service.AddClientProxy(sess.client)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.metrics.SessionOpened()

	s.logger.Info("client connected", zap.String("session", sess.id))
	return sess
}

func (s *Server) close(sess *session) {
	s.service.RemoveClientProxy(sess.client)

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.metrics.SessionClosed()

	s.logger.Info("client disconnected", zap.String("session", sess.id))
}

// handler returns the JSON-RPC handler for one session
func (s *Server) handler(sess *session) jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("received", zap.String("method", req.Method()), zap.String("session", sess.id))
		reply = s.observe(req, reply)

		switch req.Method() {
		case protocol.MethodInitialize:
			return s.handleInitialize(ctx, reply, req)
		case protocol.MethodInitialized:
			return reply(ctx, nil, nil)
		case protocol.MethodShutdown:
			return s.handleShutdown(ctx, reply, sess)
		case protocol.MethodExit:
			return s.handleExit(ctx, reply, sess)
		}

		if r, ok := s.routes[req.Method()]; ok {
			return r(ctx, reply, req)
		}
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}
}

// observe wraps reply so the message is counted once it is answered.
func (s *Server) observe(req jsonrpc2.Request, reply jsonrpc2.Replier) jsonrpc2.Replier {
	start := time.Now()
	kind := metrics.KindNotification
	if _, ok := req.(*jsonrpc2.Call); ok {
		kind = metrics.KindCall
	}
	return func(ctx context.Context, result interface{}, err error) error {
		s.metrics.RecordMessage(req.Method(), kind, err, time.Since(start))
		return reply(ctx, result, err)
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := decodeParams(req, &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse initialize params")
	}

	if params.ClientInfo != nil {
		s.logger.Info("initialize", zap.String("client", params.ClientInfo.Name), zap.String("clientVersion", params.ClientInfo.Version))
	}

	return reply(ctx, initializeResult{
		Capabilities: capabilities(),
		ServerInfo: &protocol.ServerInfo{
			Name:    ServerName,
			Version: s.version,
		},
	}, nil)
}

func (s *Server) handleShutdown(ctx context.Context, reply jsonrpc2.Replier, sess *session) error {
	sess.mu.Lock()
	sess.shutdownSeen = true
	sess.mu.Unlock()
	return reply(ctx, nil, nil)
}

// handleExit closes the connection. ServeStream then unregisters the proxy.
func (s *Server) handleExit(ctx context.Context, reply jsonrpc2.Replier, sess *session) error {
	sess.mu.Lock()
	clean := sess.shutdownSeen
	sess.mu.Unlock()
	if !clean {
		s.logger.Warn("exit without shutdown", zap.String("session", sess.id))
	}

	if err := reply(ctx, nil, nil); err != nil {
		s.logger.Warn("failed to reply to exit", zap.Error(err))
	}
	if err := sess.conn.Close(); err != nil {
		s.logger.Debug("closing connection", zap.Error(err))
	}
	return nil
}

// replyWithError sends an LSP-compliant error response
func (s *Server) replyWithError(ctx context.Context, reply jsonrpc2.Replier, code jsonrpc2.Code, message string) error {
	return reply(ctx, nil, jsonrpc2.NewError(code, message))
}

func isClosingError(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
