package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
)

// Server REST API server
type Server struct {
	addr       string
	deps       Deps
	httpServer *http.Server
	handler    http.Handler
}

// NewServer creates the API server bound to host:port
func NewServer(host string, port int, deps Deps) *Server {
	return &Server{
		addr:    net.JoinHostPort(host, fmt.Sprint(port)),
		deps:    deps,
		handler: setupRouter(deps),
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start API server; the websocket hub runs until ctx is done
func (s *Server) Start(ctx context.Context) error {
	if s.deps.Hub != nil {
		go s.deps.Hub.Run(ctx)
	}

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	logger.Info("Wallet API Server starting on ", s.addr)
	logger.Info("JSON-RPC provider at http://", s.addr, "/rpc")
	logger.Info("WebSocket available at ws://", s.addr, "/ws")
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Wallet API Server error: ", err)
		}
	}()

	return nil
}

// Stop API server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	logger.Info("Shutting down Wallet API Server...")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.addr
}
