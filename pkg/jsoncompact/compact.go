// Package jsoncompact shrinks JSON values for display by trimming arrays,
// truncating long strings and cutting off deep nesting. Object key order is
// preserved.
package jsoncompact

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// Options bounds the compacted output. Zero disables a limit.
type Options struct {
	MaxArrayItems int // items kept per array
	MaxStringLen  int // bytes kept per string, cut on a rune boundary
	MaxDepth      int // nesting levels before MaxDepthMarker
}

const (
	DefaultMaxArrayItems = 3
	DefaultMaxStringLen  = 500
	DefaultMaxDepth      = 0 // unlimited
)

// MaxDepthMarker replaces values nested deeper than Options.MaxDepth.
const MaxDepthMarker = "[max depth]"

// DefaultOptions returns the default compaction settings.
func DefaultOptions() *Options {
	return &Options{
		MaxArrayItems: DefaultMaxArrayItems,
		MaxStringLen:  DefaultMaxStringLen,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Compact decodes data, compacts it and re-encodes it with key order intact.
// A nil opts means DefaultOptions.
func Compact(data []byte, opts *Options) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	v, err := analyzer.Decode(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(CompactValue(v, opts))
}

// CompactValue compresses a decoded JSON value. Ordered objects stay ordered;
// plain maps from json.Unmarshal are accepted as well. The input is not
// modified. If opts is nil, DefaultOptions() is used.
func CompactValue(v any, opts *Options) any {
	if opts == nil {
		opts = DefaultOptions()
	}
	return compactRecursive(v, opts, 0)
}

// CompactRecords compacts each record without trimming the record list
// itself. Used for sample records where the count is already bounded.
func CompactRecords(records []any, opts *Options) []any {
	if opts == nil {
		opts = DefaultOptions()
	}
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = compactRecursive(rec, opts, 0)
	}
	return out
}

func compactRecursive(v any, opts *Options, depth int) any {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return MaxDepthMarker
	}

	switch val := v.(type) {
	case []any:
		return compactArray(val, opts, depth)
	case *analyzer.Object:
		if val == nil {
			return nil
		}
		return compactObject(val, opts, depth)
	case map[string]any:
		return compactMap(val, opts, depth)
	case string:
		return compactString(val, opts)
	default:
		return v
	}
}

func compactString(s string, opts *Options) string {
	if opts.MaxStringLen <= 0 || len(s) <= opts.MaxStringLen {
		return s
	}
	cut := opts.MaxStringLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (%d more chars)", s[:cut], len(s)-cut)
}

func compactArray(arr []any, opts *Options, depth int) []any {
	keep := len(arr)
	if opts.MaxArrayItems > 0 && keep > opts.MaxArrayItems {
		keep = opts.MaxArrayItems
	}
	out := make([]any, 0, keep+1)
	for _, item := range arr[:keep] {
		out = append(out, compactRecursive(item, opts, depth+1))
	}
	if dropped := len(arr) - keep; dropped > 0 {
		out = append(out, fmt.Sprintf("... (%d more items)", dropped))
	}
	return out
}

func compactObject(obj *analyzer.Object, opts *Options, depth int) *analyzer.Object {
	result := analyzer.NewObject()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		result.Set(pair.Key, compactRecursive(pair.Value, opts, depth+1))
	}
	return result
}

func compactMap(obj map[string]any, opts *Options, depth int) map[string]any {
	result := make(map[string]any, len(obj))
	for k, v := range obj {
		result[k] = compactRecursive(v, opts, depth+1)
	}
	return result
}
