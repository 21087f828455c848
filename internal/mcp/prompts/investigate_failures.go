package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultReviewLimit = 20

// HandleInvestigateFailures walks through recent error events.
func HandleInvestigateFailures(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		limit := defaultReviewLimit
		if args := req.Params.Arguments; args != nil {
			if v, err := strconv.Atoi(args["limit"]); err == nil && v > 0 {
				limit = v
			}
		}

		var sb strings.Builder

		sb.WriteString("# Investigate Upload Failures\n\n")
		sb.WriteString("## Step 1: Collect\n\n")
		fmt.Fprintf(&sb, "```\nstoreadvisor_history(limit: %d)\n```\n\n", limit)
		sb.WriteString("Keep the events with `kind: \"error\"`. Use `storeadvisor_get_event(id)` for the full record of any event.\n\n")

		sb.WriteString("## Step 2: Diagnose by Code\n\n")
		sb.WriteString("| Error prefix | Likely cause | Fix |\n")
		sb.WriteString("|--------------|--------------|-----|\n")
		sb.WriteString("| PARSE_ERROR | Truncated or non-JSON file | Check the producer; the offset in the message points at the break |\n")
		sb.WriteString("| UNSUPPORTED_STRUCTURE | Top level is a scalar | Wrap the value or pass `records_path` |\n")
		sb.WriteString("| NOT_FOUND | The file path does not exist on the server | Check the path |\n")
		sb.WriteString("| UNSUPPORTED_MEDIA | The upload is not JSON | Convert the file to JSON |\n")
		sb.WriteString("| INVALID_INPUT | Empty upload or a `records_path` that selects nothing | Inspect the envelope and fix the path |\n")
		sb.WriteString("| TOO_LARGE | File exceeds the upload limit | Split the file or raise MAX_UPLOAD_BYTES |\n")
		if cfg.StoreEnabled {
			sb.WriteString("| SCHEMA_DRIFT | A record outside the sample broke the inferred schema | Clean the record or store the file as documents |\n")
			sb.WriteString("| STORE_ERROR | The backend rejected the write | Check connectivity and credentials for the backend |\n")
		}

		sb.WriteString("\n## Step 3: Summarize\n\n")
		sb.WriteString("Group failures by code and filename. Call `storeadvisor_analytics` for the overall error rate and report which fixes would clear the most failures.\n")

		return &sdkmcp.GetPromptResult{
			Description: "Review recent upload errors",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
