package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"strings"
)

const (
	// DefaultMaxSample bounds how many records an analysis inspects.
	DefaultMaxSample = 100
	// DefaultFlattenDepth bounds how many object levels become field paths.
	DefaultFlattenDepth = 2
	// CollectionSampleSize is how many records a document-oriented result
	// carries verbatim.
	CollectionSampleSize = 3
)

// Option configures an analysis.
type Option func(*settings)

type settings struct {
	maxSample    int
	flattenDepth int
}

// WithMaxSample sets the sample cap. Values <= 0 keep the default.
func WithMaxSample(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxSample = n
		}
	}
}

// WithFlattenDepth sets the flattening bound. Values <= 0 keep the default.
func WithFlattenDepth(d int) Option {
	return func(s *settings) {
		if d > 0 {
			s.flattenDepth = d
		}
	}
}

// Result is the outcome of one analysis. CreateTableSQL and Columns are set
// for relational results, CollectionSample (possibly empty) for
// document-oriented ones.
type Result struct {
	Database         Database        `json:"database" yaml:"database"`
	Reason           string          `json:"reason" yaml:"reason"`
	Fields           *Fields         `json:"fields" yaml:"fields"`
	SampleSize       int             `json:"sampleSize" yaml:"sampleSize"`
	KeyConsistency   *KeyConsistency `json:"keyConsistency" yaml:"keyConsistency"`
	NestingDepth     int             `json:"nestingDepth" yaml:"nestingDepth"`
	TopLevel         Shape           `json:"topLevel" yaml:"topLevel"`
	FlattenDepth     int             `json:"flattenDepth" yaml:"flattenDepth"`
	CreateTableSQL   string          `json:"createTableSQL,omitempty" yaml:"createTableSQL,omitempty"`
	Columns          []Column        `json:"columns,omitempty" yaml:"columns,omitempty"`
	CollectionSample []any           `json:"collectionSample,omitzero" yaml:"collectionSample,omitempty"`
	Summary          string          `json:"summary" yaml:"summary"`
}

// Relational reports whether the sample was classified as relational.
func (r *Result) Relational() bool {
	return r.Database == Relational
}

// FieldNames returns the resolved field paths in discovery order.
func (r *Result) FieldNames() []string {
	names := make([]string, 0, r.Fields.Len())
	for pair := r.Fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Analyze classifies input, which may be raw JSON ([]byte, string,
// json.RawMessage, io.Reader) or an already-parsed value.
func Analyze(input any, opts ...Option) (*Result, error) {
	v, err := load(input)
	if err != nil {
		return nil, err
	}
	return analyzeValue(v, newSettings(opts))
}

// AnalyzeValue classifies an already-decoded JSON value. Unlike Analyze, a Go
// string is a JSON string scalar here, never JSON text.
func AnalyzeValue(ctx context.Context, v any, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cv, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}
	return analyzeValue(cv, newSettings(opts))
}

func newSettings(opts []Option) settings {
	cfg := settings{maxSample: DefaultMaxSample, flattenDepth: DefaultFlattenDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// AnalyzeContext is Analyze for callers that carry a context. The context is
// checked once before the analysis starts.
func AnalyzeContext(ctx context.Context, input any, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Analyze(input, opts...)
}

// load decodes raw input or canonicalizes an already-parsed value.
func load(input any) (any, error) {
	switch in := input.(type) {
	case []byte:
		return Decode(in)
	case string:
		return DecodeReader(strings.NewReader(in))
	case json.RawMessage:
		return Decode(in)
	case io.Reader:
		return DecodeReader(in)
	default:
		return Canonicalize(input)
	}
}

func analyzeValue(v any, cfg settings) (*Result, error) {
	records, shape, err := Normalize(v, cfg.maxSample)
	if err != nil {
		return nil, err
	}

	union := NewTypeUnion()
	scorer := NewKeyScorer()
	maxDepth := 0
	for _, rec := range records {
		scorer.Observe(rec)
		if _, ok := asObject(rec); !ok {
			continue
		}
		maxDepth = max(maxDepth, MeasureDepth(rec))
		union.Observe(Flatten(rec, cfg.flattenDepth))
	}

	fields := union.Resolve()
	consistency := scorer.Finalize(len(records))
	decision := Decide(Signals{
		Shape:          shape,
		SampleSize:     len(records),
		MaxDepth:       maxDepth,
		KeyConsistency: consistency,
	})

	res := &Result{
		Database:       decision.Database,
		Reason:         decision.Reason,
		Fields:         fields,
		SampleSize:     len(records),
		KeyConsistency: consistency,
		NestingDepth:   maxDepth,
		TopLevel:       shape,
		FlattenDepth:   cfg.flattenDepth,
		Summary:        Summarize(decision),
	}
	if decision.Database == Relational {
		res.CreateTableSQL, res.Columns = GenerateDDL(fields, DDLOptions{})
	} else {
		n := min(len(records), CollectionSampleSize)
		res.CollectionSample = append(make([]any, 0, n), records[:n]...)
	}
	return res, nil
}

// Summarize renders the one-line recap of a decision.
func Summarize(d Decision) string {
	return strings.ToUpper(string(d.Database)) + " recommended - " + d.Reason
}

// AllRecords normalizes v like Normalize without a sample cap. Writers use it
// to persist every record of an upload.
func AllRecords(v any) ([]any, Shape, error) {
	n := 1
	switch val := v.(type) {
	case []any:
		n = len(val)
	case *Object:
		if val != nil {
			n = val.Len()
		}
	}
	return Normalize(v, max(n, 1))
}
