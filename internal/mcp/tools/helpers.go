// Package tools contains the MCP tool implementations for storeadvisor.
package tools

import (
	"time"

	"github.com/usestring/storeadvisor/internal/eventlog"
	"github.com/usestring/storeadvisor/internal/ingest"
	"github.com/usestring/storeadvisor/pkg/analyzer"
	"github.com/usestring/storeadvisor/pkg/jsoncompact"
)

// MIME type constant.
const MimeJSON = "application/json"

// FieldType is one resolved field path.
type FieldType struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// KeyScore is the fraction of sampled records carrying a key.
type KeyScore struct {
	Key   string  `json:"key"`
	Ratio float64 `json:"ratio"`
}

// ReportOutput is the tool view of an ingest report.
type ReportOutput struct {
	EventID          string      `json:"event_id,omitempty"`
	Filename         string      `json:"filename"`
	Status           string      `json:"status"`
	Database         string      `json:"database"`
	Reason           string      `json:"reason"`
	Summary          string      `json:"summary"`
	SampleSize       int         `json:"sample_size"`
	Records          int         `json:"records"`
	NestingDepth     int         `json:"nesting_depth"`
	Fields           []FieldType `json:"fields,omitzero"`
	KeyConsistency   []KeyScore  `json:"key_consistency,omitzero"`
	CreateTableSQL   string      `json:"create_table_sql,omitempty"`
	CollectionSample any         `json:"collection_sample,omitempty"`
	Profile          any         `json:"profile,omitempty"`
	Validation       any         `json:"validation,omitempty"`
	Stored           int64       `json:"stored"`
	StoreResult      string      `json:"store_result,omitempty"`
	Cached           bool        `json:"cached"`
	DurationMs       int64       `json:"duration_ms"`
}

// BuildReportOutput flattens rep for tool output. Sample documents are
// compacted with opts unless opts is nil.
func BuildReportOutput(rep *ingest.Report, opts *jsoncompact.Options) ReportOutput {
	out := ReportOutput{
		EventID:     rep.EventID,
		Filename:    rep.Filename,
		Status:      rep.Status,
		Records:     rep.Records,
		Stored:      rep.Stored,
		StoreResult: rep.StoreResult,
		Cached:      rep.Cached,
		DurationMs:  rep.Duration.Milliseconds(),
	}
	if rep.Validation != nil {
		out.Validation = rep.Validation
	}
	if rep.Profile != nil {
		out.Profile = rep.Profile
	}

	res := rep.Result
	if res == nil {
		return out
	}
	out.Database = string(res.Database)
	out.Reason = res.Reason
	out.Summary = res.Summary
	out.SampleSize = res.SampleSize
	out.NestingDepth = res.NestingDepth
	out.CreateTableSQL = res.CreateTableSQL
	out.Fields = fieldTypes(res.Fields)
	out.KeyConsistency = keyScores(res.KeyConsistency)

	if len(res.CollectionSample) > 0 {
		if opts != nil {
			out.CollectionSample = jsoncompact.CompactRecords(res.CollectionSample, opts)
		} else {
			out.CollectionSample = res.CollectionSample
		}
	}
	return out
}

func fieldTypes(fields *analyzer.Fields) []FieldType {
	if fields == nil || fields.Len() == 0 {
		return nil
	}
	out := make([]FieldType, 0, fields.Len())
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, FieldType{Path: pair.Key, Type: pair.Value.String()})
	}
	return out
}

func keyScores(kc *analyzer.KeyConsistency) []KeyScore {
	if kc == nil || kc.Len() == 0 {
		return nil
	}
	out := make([]KeyScore, 0, kc.Len())
	for pair := kc.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, KeyScore{Key: pair.Key, Ratio: pair.Value})
	}
	return out
}

// EventOutput is the tool view of a logged event.
type EventOutput struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Filename   string   `json:"filename"`
	Database   string   `json:"database,omitempty"`
	Fields     []string `json:"fields,omitzero"`
	Status     string   `json:"status"`
	Error      string   `json:"error,omitempty"`
	SampleSize int      `json:"sample_size"`
	Stored     int64    `json:"stored"`
	CreatedAt  string   `json:"created_at"`
}

// BuildEventOutput converts an event log entry.
func BuildEventOutput(ev *eventlog.Event) EventOutput {
	return EventOutput{
		ID:         ev.ID,
		Kind:       ev.Kind,
		Filename:   ev.Filename,
		Database:   ev.Database,
		Fields:     ev.Fields,
		Status:     ev.Status,
		Error:      ev.Error,
		SampleSize: ev.SampleSize,
		Stored:     ev.Stored,
		CreatedAt:  ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
