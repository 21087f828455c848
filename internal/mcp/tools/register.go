package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeadvisor_analyze",
		Description: "Classify a JSON document as relational or document-oriented storage without persisting it. Pass inline JSON in `json` or a server-side file in `path`. Returns {database, reason, summary, fields: [{path, type}], key_consistency: [{key, ratio}], create_table_sql (relational) or collection_sample and profile (document), validation}. Use records_path (jq, e.g. .data.items) when the records are wrapped in an envelope.",
	}, ToolAnalyze(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeadvisor_ingest_file",
		Description: "Analyze a JSON file and store it in the recommended backend when stores are enabled (relational table or document collection). Relational uploads are validated against the inferred schema first; drift fails with SCHEMA_DRIFT and nothing is written. Returns the same shape as storeadvisor_analyze plus stored and store_result.",
	}, ToolIngestFile(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeadvisor_history",
		Description: "List recent upload and error events, newest first. Returns {events: [{id, kind, filename, database, fields, status, error, sample_size, stored, created_at}], total}.",
	}, ToolHistory(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeadvisor_get_event",
		Description: "Get one event by id from storeadvisor_history or an analyze/ingest result.",
	}, ToolGetEvent(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeadvisor_analytics",
		Description: "Aggregate the event log: totals, uploads vs errors, rows/documents stored, counts by database and by status, time of the last event.",
	}, ToolAnalytics(d))
}
