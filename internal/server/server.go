// Package server owns the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// WriteMargin is the time left after the last provider attempt for the
// handler to write the aggregated response.
const WriteMargin = 5 * time.Second

// DefaultConfig returns default HTTP server configuration. WriteTimeout
// covers two providers at 30s each; WithFailoverBudget raises it for longer
// provider chains.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    75 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 20 * time.Second,
	}
}

// WithFailoverBudget returns c with WriteTimeout raised, if needed, so that
// attempts provider calls of up to perAttempt each plus WriteMargin finish
// before the connection is cut.
func (c Config) WithFailoverBudget(perAttempt time.Duration, attempts int) Config {
	if perAttempt <= 0 || attempts <= 0 {
		return c
	}
	if need := perAttempt*time.Duration(attempts) + WriteMargin; need > c.WriteTimeout {
		c.WriteTimeout = need
	}
	return c
}

// Server wraps the HTTP server.
type Server struct {
	config Config
	http   *http.Server
	logger log.FieldLogger
}

// NewServer creates a new HTTP server serving handler.
func NewServer(handler http.Handler, config Config, logger log.FieldLogger) *Server {
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config: config,
		http:   httpServer,
		logger: logger,
	}
}

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Run serves on ln until ctx is cancelled, then shuts down gracefully,
// letting in-flight requests finish within ShutdownTimeout.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("Starting HTTP server")
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
