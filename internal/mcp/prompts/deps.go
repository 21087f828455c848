// Package prompts contains MCP prompt implementations for storeadvisor.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	StoreEnabled      bool
	RelationalBackend string
	MaxSample         int
}
