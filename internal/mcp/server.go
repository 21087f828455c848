package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeadvisor/internal/mcp/prompts"
	"github.com/usestring/storeadvisor/internal/mcp/tools"
)

// Server wraps the MCP server with the storeadvisor tools, prompts and
// resources.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	enableBuiltinTools   bool // tools plus storeadvisor:// resources
	enableBuiltinPrompts bool
	customRegistrations  []func(*sdkmcp.Server) // run after the builtins
}

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

// ServerOption configures a Server before registration.
type ServerOption func(*Server)

// WithBuiltinTools enables the builtin tools and resources.
func WithBuiltinTools() ServerOption {
	return func(s *Server) {
		s.enableBuiltinTools = true
	}
}

// WithBuiltinPrompts enables the builtin prompts.
func WithBuiltinPrompts() ServerOption {
	return func(s *Server) {
		s.enableBuiltinPrompts = true
	}
}

// WithCustomRegistration queues fn to run against the SDK server once the
// builtins are registered. Callbacks run in the order they were added.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) {
		s.customRegistrations = append(s.customRegistrations, fn)
	}
}

// NewServer builds the SDK server and registers the enabled builtins.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil || deps.Service == nil || deps.Config == nil {
		return nil, fmt.Errorf("deps with an ingest service and config are required")
	}

	s := &Server{deps: deps}

	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    "storeadvisor",
			Version: Version,
		},
		nil,
	)

	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	if s.enableBuiltinTools {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
	}
	if s.enableBuiltinPrompts {
		prompts.Register(s.mcpServer, &prompts.Config{
			StoreEnabled:      deps.Config.StoreEnabled,
			RelationalBackend: deps.Config.RelationalBackend,
			MaxSample:         deps.Config.MaxSample,
		})
	}

	for _, fn := range s.customRegistrations {
		fn(s.mcpServer)
	}

	return s, nil
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer exposes the SDK server, mainly for in-memory client tests.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
