package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleRecommendStorage implements the classify-and-explain workflow.
func HandleRecommendStorage(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var path, recordsPath string
		if args := req.Params.Arguments; args != nil {
			path = args["path"]
			recordsPath = args["records_path"]
		}

		var sb strings.Builder

		sb.WriteString("# Recommend Storage for a JSON Dataset\n\n")
		sb.WriteString("You are a data engineer deciding whether a JSON dataset belongs in a relational table or a document collection. ")
		sb.WriteString("Explain the decision in terms of the data, not the tool.\n\n")

		sb.WriteString("## Step 1: Classify\n\n")
		call := "storeadvisor_analyze("
		if path != "" {
			call += fmt.Sprintf("path: %q", path)
		} else {
			call += "path: \"<file>\" or json: \"<payload>\""
		}
		if recordsPath != "" {
			call += fmt.Sprintf(", records_path: %q", recordsPath)
		}
		call += ")"
		sb.WriteString("```\n" + call + "\n```\n\n")
		if recordsPath == "" {
			sb.WriteString("If the top level is an envelope object rather than the record array, retry with `records_path` pointing at the array.\n\n")
		}

		sb.WriteString("## Step 2: Explain the Reason\n\n")
		sb.WriteString("| reason | What to tell the user |\n")
		sb.WriteString("|--------|-----------------------|\n")
		sb.WriteString("| Flat array of objects with consistent keys and shallow nesting | Most keys appear in at least 80% of records and nothing nests deeper than one level |\n")
		sb.WriteString("| Nested or variable structure detected | Compare `nesting_depth` with the limit of 1 and name the nested fields |\n")
		sb.WriteString("| Inconsistent keys / single object or mixed types | Name the keys whose `key_consistency` ratio is below 0.8, or note that the input is a single object |\n")
		sb.WriteString("| No records in sample | The selected array is empty |\n")
		fmt.Fprintf(&sb, "\nOnly the first %d records are sampled. Mention this if the file is larger.\n\n", cfg.MaxSample)

		sb.WriteString("## Step 3: Prepare the Layout\n\n")
		sb.WriteString("- **relational**: review `create_table_sql`. Point out `TEXT` columns that look like dates or ids, and JSON columns holding nested values.\n")
		sb.WriteString("- **document-oriented**: review `profile.fields`. Call out required fields, nullable fields, detected formats and enum-like fields as index candidates.\n\n")

		sb.WriteString("## Step 4: Store\n\n")
		if cfg.StoreEnabled {
			sb.WriteString("If the user agrees with the recommendation and the input is a file, call `storeadvisor_ingest_file` with the same arguments. ")
			fmt.Fprintf(&sb, "Relational data is written to the `%s` backend. ", cfg.RelationalBackend)
			sb.WriteString("Report `store_result`. On `SCHEMA_DRIFT`, show the validation errors and ask whether to clean the data or store it as documents.\n")
		} else {
			sb.WriteString("Storage is disabled on this server. Hand the user the DDL or the profile so they can create the table or collection themselves.\n")
		}

		return &sdkmcp.GetPromptResult{
			Description: "Classify a JSON dataset and explain the storage recommendation",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
