package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Manager owns the HTTP listener lifecycle: non-blocking start, error
// surfacing, graceful shutdown.
type Manager struct {
	server   *http.Server
	listener net.Listener
	errCh    chan error
	logger   *zap.Logger
}

// NewManager wraps handler in an http.Server bound to addr.
func NewManager(handler http.Handler, addr string, logger *zap.Logger) *Manager {
	return &Manager{
		server: &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		errCh:  make(chan error, 1),
		logger: logger.With(zap.String("component", "http_server")),
	}
}

// Start begins listening and serving in the background.
func (m *Manager) Start() error {
	listener, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return err
	}
	m.listener = listener
	m.logger.Info("starting HTTP server", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.errCh <- err
		}
	}()
	return nil
}

// Addr returns the actual listen address, useful when binding to port 0.
func (m *Manager) Addr() string {
	if m.listener == nil {
		return m.server.Addr
	}
	return m.listener.Addr().String()
}

// Err surfaces a fatal serve error.
func (m *Manager) Err() <-chan error {
	return m.errCh
}

// Shutdown drains in-flight requests until ctx expires.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down HTTP server")
	return m.server.Shutdown(ctx)
}
