package mcpsrv

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/ingest"
	"github.com/usestring/storeadvisor/internal/logging"
	"github.com/usestring/storeadvisor/internal/mcp"
	"github.com/usestring/storeadvisor/internal/mcp/tools"
	_ "github.com/usestring/storeadvisor/internal/store/backends"
)

// Server is the storeadvisor MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal      *mcp.Server
	deps          *Deps
	logCleanup    func() error
	ingestCleanup func()
}

// NewServer creates a new MCP server with the builtin storeadvisor tools.
//
// Configuration is loaded from the environment unless WithConfig is given.
// Use functional options to configure logging, add custom tools, etc.
func NewServer(ctx context.Context, opts ...Option) (*Server, error) {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.config == nil {
		cfg.config = config.Load()
	}

	// Setup logging
	logCfg := logging.FromConfig(cfg.config)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	svc, ingestCleanup, err := ingest.Open(ctx, cfg.config)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to open ingest service: %w", err)
	}

	toolDeps := &tools.Deps{Service: svc, Config: cfg.config}
	deps := &Deps{Service: svc, Config: cfg.config}

	// Build internal server options
	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}

	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}

	// Deferred tool registrations need Deps
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		ingestCleanup()
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:      internal,
		deps:          deps,
		logCleanup:    logCleanup,
		ingestCleanup: ingestCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close releases the stores, the event log and the log file.
func (s *Server) Close() error {
	if s.ingestCleanup != nil {
		s.ingestCleanup()
	}
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
