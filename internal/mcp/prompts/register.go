package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "usage_guide",
		Description: "Short guide to the storeadvisor tools: which tool answers which question and how to read the results.",
	}, HandleBasePrompt(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "recommend_storage",
		Description: "RECOMMENDED: Walk through classifying a JSON file, explaining the relational vs document decision and preparing the schema or collection layout.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "path",
				Description: "Server-side path of the JSON file to classify",
				Required:    false,
			},
			{
				Name:        "records_path",
				Description: "jq path of the record array inside an envelope (e.g. .data.items)",
				Required:    false,
			},
		},
	}, HandleRecommendStorage(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "investigate_failures",
		Description: "Review recent upload errors from the event log and suggest fixes for each error code.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "limit",
				Description: "How many recent events to review (default 20)",
				Required:    false,
			},
		},
	}, HandleInvestigateFailures(cfg))
}
