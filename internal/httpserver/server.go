// Package httpserver provides the HTTP API consumed by the reader frontend.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/aiproxy"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/config"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/procman"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/secrets"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/session"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/store"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/usage"
)

// SessionService is the session manager surface the API exposes.
type SessionService interface {
	Connect(ctx context.Context, serverID, serverName, command string, args []string, env map[string]string) (session.ClientInfo, error)
	ConnectFromConfig(ctx context.Context, cfg session.ServerConfig) (session.ClientInfo, error)
	Disconnect(serverID string) error
	DisconnectAll()
	ConnectedClients() []session.ClientInfo
	ListTools(ctx context.Context, serverID string) ([]session.ToolInfo, error)
	CallTool(ctx context.Context, serverID, toolName string, arguments any) (*session.ToolCallResult, error)
	ListResources(ctx context.Context, serverID string) ([]session.ResourceInfo, error)
	ReadResource(ctx context.Context, serverID, uri string) (*session.ReadResourceResult, error)
	ListPrompts(ctx context.Context, serverID string) ([]session.PromptInfo, error)
	GetPrompt(ctx context.Context, serverID, promptName string, arguments map[string]string) (*session.GetPromptResult, error)
}

// Completer is the AI proxy surface the API exposes.
type Completer interface {
	Complete(ctx context.Context, req aiproxy.Request) (*aiproxy.Completion, error)
}

// Deps contains the services behind the API.
type Deps struct {
	Sessions  SessionService
	Servers   *store.Store
	Keyring   secrets.Keyring
	AI        Completer
	Usage     *usage.Recorder
	Processes *procman.Manager

	// ConnectTimeout bounds spawn plus handshake for one connect
	// request. Zero means no bound beyond the request context.
	ConnectTimeout time.Duration
}

// Server is the HTTP server for the reader backend API.
type Server struct {
	config     config.ServerConfig
	deps       Deps
	logger     *log.Logger
	router     chi.Router
	httpServer *http.Server
}

// NewServer creates the API server.
func NewServer(cfg config.ServerConfig, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		config: cfg,
		deps:   deps,
		logger: logger,
	}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Address returns the listen address.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves requests until the context is canceled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Address(), err)
	}
	s.logger.Info("api server listening", "addr", listener.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		return s.Shutdown(shutdownCtx) //nolint:contextcheck // new context for graceful shutdown
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.config.ShutdownTimeout > 0 {
		return s.config.ShutdownTimeout
	}
	return 15 * time.Second
}
