// Package mcpsrv provides an extensible MCP server for storeadvisor.
//
// The server exposes the storeadvisor pipeline over MCP: classify JSON as
// relational or document-oriented, store it in the recommended backend and
// browse the upload event log. Builtin tools, prompts and resources can be
// extended with custom ones using functional options.
//
// # Basic Usage
//
// Create a server configured from the environment:
//
//	server, err := mcpsrv.NewServer(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type MyInput struct {
//	    Path string `json:"path"`
//	}
//
//	type MyOutput struct {
//	    Count int `json:"count"`
//	}
//
//	func myHandler(ctx context.Context, req *mcp.CallToolRequest, input MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	    return nil, MyOutput{Count: 42}, nil
//	}
//
//	server, err := mcpsrv.NewServer(ctx,
//	    mcpsrv.WithTool(&mcp.Tool{Name: "my_tool", Description: "My tool"}, myHandler),
//	)
//
// # Configuration
//
// Settings come from environment variables (MAX_SAMPLE, STORE_ENABLED,
// RELATIONAL_BACKEND, ...). Override them wholesale or tune logging:
//
//	cfg := config.Load()
//	cfg.StoreEnabled = true
//	server, err := mcpsrv.NewServer(ctx,
//	    mcpsrv.WithConfig(cfg),
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/storeadvisor-mcp.log"),
//	)
package mcpsrv
