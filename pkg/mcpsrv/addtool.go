package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeadvisor/internal/mcp/tools"
)

// AddTool registers a tool after checking that the zero value of Out passes
// the output schema the SDK infers for it. A nil slice marshals as null while
// the schema says "array", so a mismatch panics at registration with the name
// of the field to fix instead of failing on the first call.
//
// Custom tools should use this instead of [sdkmcp.AddTool].
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
