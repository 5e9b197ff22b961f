package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// DefaultWebSocketPath is where the upgrade endpoint is mounted by default.
const DefaultWebSocketPath = "/lsp"

const shutdownTimeout = 5 * time.Second

// Router returns an HTTP handler exposing the server as a WebSocket endpoint
// at path plus /healthz and /metrics. Sessions opened through it end with ctx.
func (s *Server) Router(ctx context.Context, path string) http.Handler {
	if path == "" {
		path = DefaultWebSocketPath
	}

	upgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Editors connect from arbitrary origins.
			return true
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"sessions": s.Sessions(),
		})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		conn := jsonrpc2.NewConn(newWebSocketStream(ws))
		if err := s.ServeStream(ctx, conn); err != nil {
			s.logger.Warn("websocket session ended with error", zap.Error(err))
		}
	})
	return r
}

// ServeWebSocket listens on addr and serves LSP over WebSocket until ctx is
// done, then shuts the HTTP server down gracefully.
func (s *Server) ServeWebSocket(ctx context.Context, addr, path string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Router(ctx, path),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("serving", zap.String("transport", "ws"), zap.String("addr", ln.Addr().String()), zap.String("path", path))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server failed: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// logRequests logs each HTTP request once it completes. For the upgrade
// endpoint that is when the session ends.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)))
	})
}

// webSocketStream carries one JSON-RPC message per text frame.
type webSocketStream struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newWebSocketStream(conn *websocket.Conn) jsonrpc2.Stream {
	return &webSocketStream{conn: conn}
}

// Read implements jsonrpc2.Stream.
func (w *webSocketStream) Read(ctx context.Context) (jsonrpc2.Message, int64, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}

	_, data, err := w.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, 0, io.EOF
		}
		return nil, 0, fmt.Errorf("failed reading websocket message: %w", err)
	}

	msg, err := jsonrpc2.DecodeMessage(data)
	return msg, int64(len(data)), err
}

// Write implements jsonrpc2.Stream.
func (w *webSocketStream) Write(ctx context.Context, msg jsonrpc2.Message) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("marshaling message: %w", err)
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return 0, fmt.Errorf("failed writing websocket message: %w", err)
	}
	return int64(len(data)), nil
}

// Close implements jsonrpc2.Stream.
func (w *webSocketStream) Close() error {
	return w.conn.Close()
}
