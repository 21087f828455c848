package tools

import (
	"context"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeadvisor/internal/ingest"
)

// inlineFilename names analyses of inline JSON in the event log.
const inlineFilename = "inline.json"

// AnalyzeInput is the input for storeadvisor_analyze.
type AnalyzeInput struct {
	JSON        string `json:"json,omitempty" jsonschema:"Inline JSON document to analyze. Either json or path is required."`
	Path        string `json:"path,omitempty" jsonschema:"Path of a JSON file readable by the server. Either json or path is required."`
	RecordsPath string `json:"records_path,omitempty" jsonschema:"jq path to the records inside an envelope, e.g. .data.items (default: whole document)"`
	Full        bool   `json:"full,omitempty" jsonschema:"Return sample documents without compaction (default: false)"`
}

// ToolAnalyze classifies a JSON document as relational or document-oriented
// without persisting it.
func ToolAnalyze(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input AnalyzeInput) (*sdkmcp.CallToolResult, ReportOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input AnalyzeInput) (*sdkmcp.CallToolResult, ReportOutput, error) {
		upload, err := d.uploadFrom(input.JSON, input.Path)
		if err != nil {
			return nil, ReportOutput{}, WrapToolError(err)
		}
		upload.RecordsPath = input.RecordsPath
		upload.AnalyzeOnly = true

		rep, err := d.Service.Process(ctx, upload)
		if err != nil {
			return nil, ReportOutput{}, WrapToolError(err)
		}

		opts := d.CompactOptions()
		if input.Full {
			opts = nil
		}
		return nil, BuildReportOutput(rep, opts), nil
	}
}

// IngestFileInput is the input for storeadvisor_ingest_file.
type IngestFileInput struct {
	Path        string `json:"path" jsonschema:"required,Path of a JSON file readable by the server"`
	RecordsPath string `json:"records_path,omitempty" jsonschema:"jq path to the records inside an envelope, e.g. .data.items (default: whole document)"`
}

// ToolIngestFile runs a file through the full pipeline, persisting it when
// stores are configured.
func ToolIngestFile(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input IngestFileInput) (*sdkmcp.CallToolResult, ReportOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input IngestFileInput) (*sdkmcp.CallToolResult, ReportOutput, error) {
		if input.Path == "" {
			return nil, ReportOutput{}, ErrInvalidInput("path is required")
		}
		upload, err := d.uploadFrom("", input.Path)
		if err != nil {
			return nil, ReportOutput{}, WrapToolError(err)
		}
		upload.RecordsPath = input.RecordsPath

		rep, err := d.Service.Process(ctx, upload)
		if err != nil {
			return nil, ReportOutput{}, WrapToolError(err)
		}
		return nil, BuildReportOutput(rep, d.CompactOptions()), nil
	}
}

func (d *Deps) uploadFrom(inline, path string) (ingest.Upload, error) {
	switch {
	case inline != "" && path != "":
		return ingest.Upload{}, ErrInvalidInput("json and path are mutually exclusive")
	case inline != "":
		return ingest.Upload{Filename: inlineFilename, Data: []byte(inline)}, nil
	case path != "":
		data, err := ingest.ReadFile(path, d.Config.MaxUploadBytes)
		if err != nil {
			return ingest.Upload{}, err
		}
		return ingest.Upload{Filename: filepath.Base(path), Data: data}, nil
	default:
		return ingest.Upload{}, ErrInvalidInput("either json or path is required")
	}
}
