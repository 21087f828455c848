// Package store defines the writers that persist an analyzed upload, either
// as rows of a generated table or as documents of a collection, and the
// registry backends plug into.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// RelationalConfig is what a relational backend needs to open.
//
// Kind must match a registered backend ("postgres", "sqlite", "mysql",
// "sqlserver", "memory"). Table defaults to analyzer.DefaultTable.
type RelationalConfig struct {
	Kind  string
	DSN   string
	Table string
}

// DocumentConfig is what a document backend needs to open.
type DocumentConfig struct {
	Kind       string
	URI        string
	Database   string
	Collection string
}

// RelationalWriter creates the table described by an analysis result and
// inserts records as rows.
type RelationalWriter interface {
	// Write ensures the table exists and inserts every record. Non-object
	// records are skipped. It returns the number of rows inserted.
	Write(ctx context.Context, res *analyzer.Result, records []any) (int64, error)

	// Close releases any backend resources. Call once.
	Close()
}

// DocumentWriter inserts records unchanged into a collection.
type DocumentWriter interface {
	// InsertDocuments inserts every object record, keeping key order.
	// It returns the number of documents inserted.
	InsertDocuments(ctx context.Context, records []any) (int64, error)

	// Close releases any backend resources. Call once.
	Close()
}

// ---- factories ----

type (
	relationalFactory func(ctx context.Context, cfg RelationalConfig) (RelationalWriter, error)
	documentFactory   func(ctx context.Context, cfg DocumentConfig) (DocumentWriter, error)
)

var (
	mu                  sync.RWMutex
	relationalFactories = map[string]relationalFactory{}
	documentFactories   = map[string]documentFactory{}
)

// RegisterRelational registers a relational backend under kind. Call it from
// an init function in the backend package.
//
// Panics if kind is empty, f is nil or kind is already registered.
func RegisterRelational(kind string, f relationalFactory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("store: RegisterRelational called with empty kind")
	}
	if f == nil {
		panic("store: RegisterRelational called with nil factory")
	}
	if _, exists := relationalFactories[kind]; exists {
		panic(fmt.Sprintf("store: relational factory already registered for kind=%q", kind))
	}
	relationalFactories[kind] = f
}

// RegisterDocument registers a document backend under kind.
//
// Panics if kind is empty, f is nil or kind is already registered.
func RegisterDocument(kind string, f documentFactory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("store: RegisterDocument called with empty kind")
	}
	if f == nil {
		panic("store: RegisterDocument called with nil factory")
	}
	if _, exists := documentFactories[kind]; exists {
		panic(fmt.Sprintf("store: document factory already registered for kind=%q", kind))
	}
	documentFactories[kind] = f
}

// OpenRelational constructs a RelationalWriter with the registered factory.
func OpenRelational(ctx context.Context, cfg RelationalConfig) (RelationalWriter, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("store: missing relational kind")
	}

	mu.RLock()
	f := relationalFactories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("store: unsupported relational kind=%s (registered: %v)", cfg.Kind, RelationalKinds())
	}
	if cfg.Table == "" {
		cfg.Table = analyzer.DefaultTable
	}
	return f(ctx, cfg)
}

// OpenDocument constructs a DocumentWriter with the registered factory.
func OpenDocument(ctx context.Context, cfg DocumentConfig) (DocumentWriter, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("store: missing document kind")
	}

	mu.RLock()
	f := documentFactories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("store: unsupported document kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// RelationalKinds lists the registered relational backends, sorted.
func RelationalKinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(relationalFactories))
	for k := range relationalFactories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
