// Package api exposes the chatbot over HTTP.
//
// Endpoints:
//
//	POST   /chat                    synchronous answer
//	POST   /chat/stream             SSE streaming answer
//	GET    /chat/history/{identity} conversation buffer
//	DELETE /chat/history/{identity} clear conversation
//	POST   /auth/token              OAuth code exchange
//	GET    /                        service status
//	GET    /health                  liveness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: recovery, logging, CORS
//   - ratelimit.go: per-IP token-bucket limiting
//   - chat.go: chat endpoints (sync + SSE)
//   - history.go: conversation history endpoints
//   - health.go: status and liveness endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudshift-ai/migbot/internal/auth"
	"github.com/cloudshift-ai/migbot/internal/chat"
	"github.com/cloudshift-ai/migbot/internal/log"
	"github.com/cloudshift-ai/migbot/internal/memory"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8002"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads; prevents Slowloris.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second

	// Per-IP rate limit: tokens per second and burst.
	rateLimitPerSec = 5
	rateLimitBurst  = 10
)

// Server is the HTTP server for the chatbot API.
type Server struct {
	mux     *http.ServeMux
	cors    []string
	limiter *rateLimiter
	logger  log.Logger

	health  *HealthHandler
	chat    *ChatHandler
	history *HistoryHandler
}

// NewServer creates an HTTP server with all routes registered. The
// auth handler is optional; without it the token-exchange route is
// not registered.
func NewServer(svc *chat.Service, mem memory.Store, authHandler *auth.Handler, corsOrigins []string, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		cors:    corsOrigins,
		limiter: newRateLimiter(rateLimitPerSec, rateLimitBurst),
		logger:  logger,
		health:  NewHealthHandler(logger),
		chat:    NewChatHandler(svc, logger),
		history: NewHistoryHandler(mem, logger),
	}

	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	s.history.RegisterRoutes(mux)
	if authHandler != nil {
		authHandler.RegisterRoutes(mux)
	}

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → CORS → rate limit → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		corsMiddleware(s.cors),
		rateLimitMiddleware(s.limiter, s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is
// cancelled, then shuts down gracefully.
//
// No WriteTimeout is set: SSE responses stay open for the duration of
// generation and must not be cut off by a fixed deadline. Streaming
// lifetime is governed by request-context cancellation instead.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
