package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleBasePrompt serves the tool usage guide.
// Storage rows are included only when stores are enabled.
func HandleBasePrompt(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# storeadvisor Tool Guide\n\n")

		// --- Decision table ---
		sb.WriteString("## Which Tool\n\n")
		sb.WriteString("| Goal | Tool | Example |\n")
		sb.WriteString("|------|------|--------|\n")
		sb.WriteString("| Classify a small JSON payload | `storeadvisor_analyze` | `json: \"[{\\\"id\\\": 1}]\"` |\n")
		sb.WriteString("| Classify a file on the server | `storeadvisor_analyze` | `path: \"/data/users.json\"` |\n")
		if cfg.StoreEnabled {
			sb.WriteString("| Classify and store a file | `storeadvisor_ingest_file` | `path: \"/data/users.json\"` |\n")
		}
		sb.WriteString("| See what happened recently | `storeadvisor_history` | `limit: 10` |\n")
		sb.WriteString("| Totals by database and status | `storeadvisor_analytics` | |\n")

		// --- Reading results ---
		sb.WriteString("\n## Reading a Result\n")
		fmt.Fprintf(&sb, "- Only the first %d records are sampled; `sample_size` says how many were used\n", cfg.MaxSample)
		sb.WriteString("- `database` is `relational` or `document-oriented`; `reason` names the rule that decided it\n")
		sb.WriteString("- `key_consistency` gives each key's presence ratio; relational needs most keys at 0.8 or above\n")
		sb.WriteString("- `nesting_depth` counts object levels below the record; anything deeper than 1 forces document storage\n")
		sb.WriteString("- Relational results carry `create_table_sql`; document results carry `collection_sample` and a `profile` with per-field statistics\n")
		sb.WriteString("- `collection_sample` is compacted by default; pass `full: true` for untrimmed records\n")

		// --- Envelopes ---
		sb.WriteString("\n## Wrapped Records\n")
		sb.WriteString("APIs often wrap records: `{\"data\": {\"items\": [...]}}`. Pass `records_path: \".data.items\"` so the array itself is classified instead of the envelope.\n")

		// --- Storage ---
		if cfg.StoreEnabled {
			sb.WriteString("\n## Storage\n")
			fmt.Fprintf(&sb, "- Relational uploads go to the `%s` backend after every record is validated against the inferred schema\n", cfg.RelationalBackend)
			sb.WriteString("- `SCHEMA_DRIFT` means a record after the sample broke the schema; nothing was written\n")
			sb.WriteString("- `STORE_ERROR` means the backend rejected the write; the analysis is still logged\n")
		} else {
			sb.WriteString("\n## Storage\n")
			sb.WriteString("Storage is disabled on this server. Results are recommendations only.\n")
		}

		return &sdkmcp.GetPromptResult{
			Description: "Guide to the storeadvisor tools",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
