package store

import (
	"context"
	"sync"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

func init() {
	RegisterRelational("memory", func(_ context.Context, cfg RelationalConfig) (RelationalWriter, error) {
		return NewMemoryRelational(cfg.Table), nil
	})
	RegisterDocument("memory", func(_ context.Context, cfg DocumentConfig) (DocumentWriter, error) {
		return NewMemoryDocument(), nil
	})
}

// MemoryRelational keeps generated DDL and rows in memory. It backs the
// "memory" kind and is used in tests.
type MemoryRelational struct {
	mu      sync.Mutex
	table   string
	DDL     []string
	Columns []analyzer.Column
	Rows    [][]any
	Err     error
}

// NewMemoryRelational returns an empty in-memory relational writer.
func NewMemoryRelational(table string) *MemoryRelational {
	return &MemoryRelational{table: table}
}

// Write implements RelationalWriter.
func (m *MemoryRelational) Write(_ context.Context, res *analyzer.Result, records []any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}
	ddl, cols := analyzer.GenerateDDL(res.Fields, analyzer.DDLOptions{Table: m.table, IfNotExists: true})
	rows, err := BuildRows(res, cols, records)
	if err != nil {
		return 0, err
	}
	m.DDL = append(m.DDL, ddl)
	m.Columns = cols
	m.Rows = append(m.Rows, rows...)
	return int64(len(rows)), nil
}

// Close implements RelationalWriter.
func (m *MemoryRelational) Close() {}

// MemoryDocument keeps inserted documents in memory.
type MemoryDocument struct {
	mu   sync.Mutex
	Docs []*analyzer.Object
	Err  error
}

// NewMemoryDocument returns an empty in-memory document writer.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{}
}

// InsertDocuments implements DocumentWriter.
func (m *MemoryDocument) InsertDocuments(_ context.Context, records []any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, rec := range records {
		if obj, ok := rec.(*analyzer.Object); ok && obj != nil {
			m.Docs = append(m.Docs, obj)
			n++
		}
	}
	return n, nil
}

// Close implements DocumentWriter.
func (m *MemoryDocument) Close() {}
