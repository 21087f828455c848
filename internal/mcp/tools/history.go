package tools

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/eventlog"
)

// HistoryInput is the input for storeadvisor_history.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max events to return, newest first (default: 20, max: 1000)"`
}

// HistoryOutput is the output for storeadvisor_history.
type HistoryOutput struct {
	Events []EventOutput `json:"events,omitzero"`
	Total  int           `json:"total"`
}

// ToolHistory lists recent upload and error events.
func ToolHistory(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input HistoryInput) (*sdkmcp.CallToolResult, HistoryOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input HistoryInput) (*sdkmcp.CallToolResult, HistoryOutput, error) {
		events, err := d.eventLog()
		if err != nil {
			return nil, HistoryOutput{}, err
		}

		limit := input.Limit
		if limit < 0 {
			return nil, HistoryOutput{}, ErrInvalidInput("limit must not be negative")
		}
		if limit == 0 {
			limit = config.DefaultHistoryLimit
		}
		limit = min(limit, config.MaxHistoryLimit)

		list, err := events.History(ctx, limit)
		if err != nil {
			return nil, HistoryOutput{}, WrapToolError(err)
		}

		out := HistoryOutput{Total: len(list)}
		for i := range list {
			out.Events = append(out.Events, BuildEventOutput(&list[i]))
		}
		return nil, out, nil
	}
}

// GetEventInput is the input for storeadvisor_get_event.
type GetEventInput struct {
	ID string `json:"id" jsonschema:"required,Event ID (from storeadvisor_history or an analyze/ingest result)"`
}

// ToolGetEvent returns a single event.
func ToolGetEvent(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetEventInput) (*sdkmcp.CallToolResult, EventOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetEventInput) (*sdkmcp.CallToolResult, EventOutput, error) {
		if input.ID == "" {
			return nil, EventOutput{}, ErrInvalidInput("id is required")
		}
		events, err := d.eventLog()
		if err != nil {
			return nil, EventOutput{}, err
		}

		ev, err := events.Get(ctx, input.ID)
		if err != nil {
			return nil, EventOutput{}, WrapToolError(err)
		}
		return nil, BuildEventOutput(ev), nil
	}
}

// AnalyticsInput is the input for storeadvisor_analytics.
type AnalyticsInput struct{}

// AnalyticsOutput is the output for storeadvisor_analytics.
type AnalyticsOutput struct {
	Total      int            `json:"total"`
	Uploads    int            `json:"uploads"`
	Errors     int            `json:"errors"`
	Stored     int64          `json:"stored"`
	ByDatabase map[string]int `json:"by_database,omitempty"`
	ByStatus   map[string]int `json:"by_status,omitempty"`
	LastEvent  string         `json:"last_event,omitempty"`
}

// ToolAnalytics aggregates the event log.
func ToolAnalytics(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input AnalyticsInput) (*sdkmcp.CallToolResult, AnalyticsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input AnalyticsInput) (*sdkmcp.CallToolResult, AnalyticsOutput, error) {
		events, err := d.eventLog()
		if err != nil {
			return nil, AnalyticsOutput{}, err
		}

		a, err := events.Analytics(ctx)
		if err != nil {
			return nil, AnalyticsOutput{}, WrapToolError(err)
		}

		out := AnalyticsOutput{
			Total:      a.Total,
			Uploads:    a.Uploads,
			Errors:     a.Errors,
			Stored:     a.Stored,
			ByDatabase: a.ByDatabase,
			ByStatus:   a.ByStatus,
		}
		if a.LastEvent != nil {
			out.LastEvent = a.LastEvent.UTC().Format(time.RFC3339Nano)
		}
		return nil, out, nil
	}
}

func (d *Deps) eventLog() (*eventlog.Log, error) {
	events := d.Events()
	if events == nil {
		return nil, ErrInvalidInput("event log is not configured")
	}
	return events, nil
}
