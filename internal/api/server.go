// Package api provides the webhook HTTP server for VeSync Connect.
//
// It receives SmartApp lifecycle requests from the hub (PING,
// CONFIRMATION, CONFIGURATION, INSTALL, UPDATE, UNINSTALL, EVENT),
// renders the setup wizard pages, and dispatches device commands.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/vesync-connect/internal/command"
	"github.com/nerrad567/vesync-connect/internal/credstore"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/config"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-connect/internal/lifecycle"
	"github.com/nerrad567/vesync-connect/internal/vesync"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SetupStore persists the wizard's output. Satisfied by *credstore.Store.
type SetupStore interface {
	PutAuth(ctx context.Context, scopeID string, cred credstore.Credential) error
	PutSelections(ctx context.Context, installedAppID string, sels []credstore.Selection) error
}

// VendorGateway is the vendor surface the wizard needs. Satisfied by
// *vesync.Client.
type VendorGateway interface {
	Login(ctx context.Context, email, password string) (vesync.Credentials, error)
	GetDevices(ctx context.Context, creds vesync.Credentials) (*vesync.DeviceList, error)
}

// Lifecycle handles the installation phases. Satisfied by
// *lifecycle.Orchestrator.
type Lifecycle interface {
	Installed(inst lifecycle.Installation)
	Updated(ctx context.Context, inst lifecycle.Installation) error
	Uninstalled(ctx context.Context, installedAppID string) error
}

// CommandHandler executes device commands. Satisfied by *command.Router.
type CommandHandler interface {
	HandleCommand(ctx context.Context, target command.Target, cmd command.Command) error
}

// HealthChecker is implemented by the infrastructure clients the health
// endpoint reports on.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the webhook server.
type Deps struct {
	Config       *config.Config
	Logger       *logging.Logger
	Store        SetupStore
	Vendor       VendorGateway
	Orchestrator Lifecycle
	Commands     CommandHandler

	// Optional health check targets, reported by name on /health.
	Health map[string]HealthChecker

	Version string
}

// Server is the webhook HTTP server.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg          *config.Config
	logger       *logging.Logger
	store        SetupStore
	vendor       VendorGateway
	orchestrator Lifecycle
	commands     CommandHandler
	health       map[string]HealthChecker
	version      string
	server       *http.Server
}

// New creates a new webhook server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, store, vendor, orchestrator, commands)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if deps.Vendor == nil {
		return nil, fmt.Errorf("vendor client is required")
	}
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("lifecycle orchestrator is required")
	}
	if deps.Commands == nil {
		return nil, fmt.Errorf("command router is required")
	}

	return &Server{
		cfg:          deps.Config,
		logger:       deps.Logger.With("component", "api"),
		store:        deps.Store,
		vendor:       deps.Vendor,
		orchestrator: deps.Orchestrator,
		commands:     deps.Commands,
		health:       deps.Health,
		version:      deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; the server is stopped
// with Close().
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("webhook server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the webhook server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("webhook server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down webhook server: %w", err)
	}
	return nil
}

// HealthCheck verifies the webhook server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("webhook server not started")
	}

	return nil
}
