package docprofile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// FieldStat describes one field path across the profiled documents.
type FieldStat struct {
	Path          string   `json:"path" yaml:"path"` // dot path, "[]" marks array items
	Type          string   `json:"type" yaml:"type"` // JSON Schema type, "a|b" for unions
	Frequency     float64  `json:"frequency" yaml:"frequency"`
	Required      bool     `json:"required" yaml:"required"`
	Nullable      bool     `json:"nullable" yaml:"nullable"`
	DistinctCount int      `json:"distinct_count" yaml:"distinct_count"`
	Examples      []any    `json:"examples,omitzero" yaml:"examples,omitempty"`
	Format        string   `json:"format,omitempty" yaml:"format,omitempty"` // uuid, iso8601, url, email, enum
	EnumValues    []string `json:"enum_values,omitempty" yaml:"enum_values,omitempty"`
}

const (
	defaultMaxDepth       = 5
	maxExamples           = 3
	minSamplesForFormat   = 5
	maxEnumDistinctValues = 10
)

var formats = []struct {
	name string
	re   *regexp.Regexp
}{
	{"uuid", regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)},
	{"iso8601", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2})?`)},
	{"url", regexp.MustCompile(`^https?://`)},
	{"email", regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)},
}

func fieldStats(schema *jsonschema.Schema, samples []any, maxDepth int) []FieldStat {
	var stats []FieldStat
	walk(schema, "", samples, 0, maxDepth, &stats)
	return stats
}

func walk(schema *jsonschema.Schema, path string, samples []any, depth, maxDepth int, stats *[]FieldStat) {
	if schema == nil {
		return
	}
	if depth > maxDepth {
		if path != "" {
			*stats = append(*stats, FieldStat{Path: path + " (truncated at depth limit)", Type: "..."})
		}
		return
	}
	if schema.Type != "object" || schema.Properties == nil {
		return
	}

	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		name, prop := pair.Key, pair.Value
		fieldPath := name
		if path != "" {
			fieldPath = path + analyzer.PathSeparator + name
		}
		*stats = append(*stats, statFor(fieldPath, prop, name, samples))

		if obj := member(prop, "object"); obj != nil && obj.Properties != nil {
			walk(obj, fieldPath, childValues(name, samples), depth+1, maxDepth, stats)
		}
		if arr := member(prop, "array"); arr != nil && arr.Items != nil && arr.Items.Type == "object" {
			walk(arr.Items, fieldPath+"[]", childItems(name, samples), depth+1, maxDepth, stats)
		}
	}
}

func statFor(path string, schema *jsonschema.Schema, key string, samples []any) FieldStat {
	stat := FieldStat{Path: path, Type: typeLabel(schema)}

	present, nulls := 0, 0
	distinct := make(map[string]bool)
	var strs []string
	for _, s := range samples {
		obj, ok := s.(*analyzer.Object)
		if !ok || obj == nil {
			continue
		}
		v, ok := obj.Get(key)
		if !ok {
			continue
		}
		present++
		if v == nil {
			nulls++
			continue
		}

		k, composite := valueKey(v)
		if !distinct[k] {
			distinct[k] = true
			// nested structure is described by the child rows
			if !composite && len(stat.Examples) < maxExamples {
				stat.Examples = append(stat.Examples, v)
			}
		}
		if str, ok := v.(string); ok {
			strs = append(strs, str)
		}
	}

	if len(samples) > 0 {
		stat.Frequency = float64(present) / float64(len(samples))
	}
	stat.Required = present == len(samples) && nulls == 0
	stat.Nullable = nulls > 0
	stat.DistinctCount = len(distinct)

	if stat.Type == "string" && len(strs) >= minSamplesForFormat {
		stat.Format, stat.EnumValues = detectFormat(strs)
	}
	return stat
}

// valueKey returns a comparison key for v and whether v is an object or array.
func valueKey(v any) (string, bool) {
	switch val := v.(type) {
	case *analyzer.Object, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%p", val), true
		}
		return string(b), true
	case string:
		// keeps "1" and 1 apart
		return "s:" + val, false
	}
	return fmt.Sprintf("%v", v), false
}

func detectFormat(values []string) (string, []string) {
	for _, f := range formats {
		all := true
		for _, v := range values {
			if !f.re.MatchString(v) {
				all = false
				break
			}
		}
		if all {
			return f.name, nil
		}
	}

	distinct := make(map[string]bool)
	for _, v := range values {
		distinct[v] = true
	}
	if len(distinct) > maxEnumDistinctValues {
		return "", nil
	}
	enum := make([]string, 0, len(distinct))
	for v := range distinct {
		enum = append(enum, v)
	}
	sort.Strings(enum)
	return "enum", enum
}

func typeLabel(schema *jsonschema.Schema) string {
	if schema.Type != "" {
		return schema.Type
	}
	if len(schema.AnyOf) == 0 {
		return "unknown"
	}
	types := make([]string, 0, len(schema.AnyOf))
	for _, s := range schema.AnyOf {
		if s.Type != "" {
			types = append(types, s.Type)
		}
	}
	return strings.Join(types, "|")
}
