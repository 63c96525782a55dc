package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthly/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackServer is a short-lived HTTP server that waits for a single
// OAuth2 authorization callback.
type CallbackServer struct {
	server  *http.Server
	handler *OAuthHandler
	logger  *log.Logger
}

// NewCallbackServer builds a callback server listening on the configured
// host and port, serving the OAuth callback on /callback.
func NewCallbackServer(cfg shared.ServerConfig, oauthConfig *oauth2.Config, state string, logger *log.Logger) *CallbackServer {
	if logger == nil {
		logger = log.Default()
	}

	handler := NewOAuthHandler(oauthConfig, state)

	mux := http.NewServeMux()
	mux.Handle("/callback", requestLogger(logger)(handler))

	return &CallbackServer{
		server: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: mux,
		},
		handler: handler,
		logger:  logger,
	}
}

// Start begins serving in a background goroutine.
func (s *CallbackServer) Start() {
	go func() {
		s.logger.Debug("callback server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.handler.Send(OAuthResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
}

// Wait blocks until a callback result arrives or the context is done,
// then shuts the server down either way.
func (s *CallbackServer) Wait(ctx context.Context) (*oauth2.Token, error) {
	defer s.Shutdown()

	select {
	case result := <-s.handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: no callback received", shared.ErrTimeout)
	}
}

// Shutdown stops the server, giving in-flight requests a moment to finish.
func (s *CallbackServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Debug("callback server shutdown", "error", err)
	}
}

// requestLogger logs each request at debug level.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}
