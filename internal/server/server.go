package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/layerscope/internal/api"
	"github.com/jackzampolin/layerscope/internal/config"
	"github.com/jackzampolin/layerscope/internal/docapi"
	"github.com/jackzampolin/layerscope/internal/home"
	"github.com/jackzampolin/layerscope/internal/sessions"
	"github.com/jackzampolin/layerscope/internal/svcctx"
	"github.com/jackzampolin/layerscope/internal/viewer"
)

// stagingMaxAge is how old a leftover upload staging file must be before the
// server removes it on start.
const stagingMaxAge = 24 * time.Hour

// Server is the layerscope HTTP server.
// It proxies the document API and holds viewer sessions in memory.
type Server struct {
	httpServer *http.Server
	backend    *docapi.Holder
	sessions   *sessions.Manager
	configMgr  *config.Manager
	home       *home.Dir
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu        sync.RWMutex
	running   bool
	addr      string
	ready     chan struct{}
	readyOnce sync.Once
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080, "0" picks a free port)
	Port string
	// ConfigManager provides configuration with hot-reload support.
	// Defaults are used when nil.
	ConfigManager *config.Manager
	// Home is the layerscope home directory (upload staging)
	Home *home.Dir
	// Backend overrides the client built from configuration
	Backend *docapi.Client
	// SwaggerSpecPath is the path to swagger.json
	SwaggerSpecPath string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Home = h
	}

	current := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		current = cfg.ConfigManager.Get()
	}

	backend := cfg.Backend
	if backend == nil {
		backend = NewBackend(current, cfg.Logger)
	}

	s := &Server{
		backend: docapi.NewHolder(backend),
		sessions: sessions.NewManager(sessions.Config{
			IdleTimeout: current.Sessions.IdleTimeout(),
			Viewer:      ViewerOptions(current),
			Logger:      cfg.Logger,
		}),
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
		ready:     make(chan struct{}),
	}

	// Swap the backend client and session timeout when the config file changes
	if cfg.ConfigManager != nil && cfg.Backend == nil {
		cfg.ConfigManager.OnChange(s.applyConfig)
	}

	s.services = &svcctx.Services{
		Backend:  s.backend,
		Sessions: s.sessions,
		Config:   cfg.ConfigManager,
		Logger:   cfg.Logger,
		Home:     cfg.Home,
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.routes(cfg.SwaggerSpecPath),
		ReadTimeout:  5 * time.Minute, // uploads
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// NewBackend builds a document API client from configuration. It returns nil
// when no base URL is configured.
func NewBackend(cfg *config.Config, logger *slog.Logger) *docapi.Client {
	if cfg.Backend.BaseURL == "" {
		return nil
	}
	return docapi.NewClient(docapi.Config{
		BaseURL:         cfg.Backend.BaseURL,
		Token:           cfg.Backend.ResolvedToken(),
		Timeout:         cfg.Backend.Timeout(),
		MaxRetries:      cfg.Backend.MaxRetries,
		ValidateBundles: cfg.Backend.ValidateBundles,
		Logger:          logger,
	})
}

// ViewerOptions maps the viewer section of the configuration onto session
// options.
func ViewerOptions(cfg *config.Config) viewer.Options {
	opts := viewer.DefaultOptions()
	if cfg.Viewer.DefaultPageWidth > 0 {
		opts.DefaultPageWidth = cfg.Viewer.DefaultPageWidth
	}
	if cfg.Viewer.DefaultPageHeight > 0 {
		opts.DefaultPageHeight = cfg.Viewer.DefaultPageHeight
	}
	if cfg.Viewer.MarkerInset > 0 {
		opts.MarkerInset = cfg.Viewer.MarkerInset
	}
	if cfg.Viewer.MarkerSize > 0 {
		opts.MarkerSize = cfg.Viewer.MarkerSize
	}
	return opts
}

func (s *Server) applyConfig(c *config.Config) {
	s.backend.Store(NewBackend(c, s.logger))
	s.sessions.SetIdleTimeout(c.Sessions.IdleTimeout())
	s.sessions.SetViewerOptions(ViewerOptions(c))
	s.logger.Info("reloaded config", "base_url", c.Backend.BaseURL)
}

// Start starts the server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.home.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}
	if n, err := s.home.CleanStaging(stagingMaxAge); err != nil {
		s.logger.Warn("failed to clean upload staging", "error", err)
	} else if n > 0 {
		s.logger.Info("removed stale uploads", "count", n)
	}

	if c := s.backend.Load(); c != nil {
		s.logger.Info("document API configured", "base_url", c.BaseURL())
	} else {
		s.logger.Warn("no document API configured, API endpoints answer 503")
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown gracefully stops the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped", "sessions", s.sessions.Len())
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the server's listen address. Once listening it is the bound
// address, so a "0" port resolves to the one picked.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.addr != "" {
		return s.addr
	}
	return s.httpServer.Addr
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Sessions returns the session manager.
func (s *Server) Sessions() *sessions.Manager {
	return s.sessions
}

// Backend returns the current document API client, nil when unconfigured.
func (s *Server) Backend() *docapi.Client {
	return s.backend.Load()
}
