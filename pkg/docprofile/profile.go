// Package docprofile describes a document collection: a merged JSON Schema
// (Draft 2020-12) over every record plus per-field statistics. It is what a
// document-oriented result gets in place of DDL.
package docprofile

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// Profile is the merged schema and field table of a set of documents.
type Profile struct {
	Schema    *jsonschema.Schema `json:"schema" yaml:"schema"`
	Documents int                `json:"documents" yaml:"documents"`
	// Uniform is true when every document produced the same schema.
	Uniform bool        `json:"uniform" yaml:"uniform"`
	Fields  []FieldStat `json:"fields,omitzero" yaml:"fields,omitempty"`
}

// Options controls profiling.
type Options struct {
	// MaxDocuments bounds how many records are profiled (0 = all).
	MaxDocuments int
	// NullableOptional keeps fields that are ever null out of "required".
	NullableOptional bool
	// MaxDepth bounds the field table walk.
	MaxDepth int
}

// DefaultOptions returns the options used by Build.
func DefaultOptions() Options {
	return Options{NullableOptional: true, MaxDepth: defaultMaxDepth}
}

// Build profiles records with DefaultOptions.
func Build(records []any) *Profile {
	return BuildWithOptions(records, DefaultOptions())
}

// BuildWithOptions profiles records. Properties keep the order in which
// their keys were first seen. Returns nil when there are no records.
func BuildWithOptions(records []any, opts Options) *Profile {
	if opts.MaxDocuments > 0 && len(records) > opts.MaxDocuments {
		records = records[:opts.MaxDocuments]
	}
	if len(records) == 0 {
		return nil
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}

	schemas := make([]*jsonschema.Schema, 0, len(records))
	for _, r := range records {
		schemas = append(schemas, SchemaOf(r))
	}

	uniform := true
	first, _ := json.Marshal(schemas[0])
	for _, s := range schemas[1:] {
		other, _ := json.Marshal(s)
		if string(first) != string(other) {
			uniform = false
			break
		}
	}

	merged := merge(schemas)
	if merged.Type == "object" {
		markRequired(merged, records, opts.NullableOptional)
	}

	return &Profile{
		Schema:    merged,
		Documents: len(records),
		Uniform:   uniform,
		Fields:    fieldStats(merged, records, opts.MaxDepth),
	}
}

// SchemaOf returns the schema of a single decoded value.
func SchemaOf(v any) *jsonschema.Schema {
	switch val := v.(type) {
	case *analyzer.Object:
		if val == nil {
			return &jsonschema.Schema{Type: "null"}
		}
		s := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			s.Properties.Set(pair.Key, SchemaOf(pair.Value))
		}
		return s
	case []any:
		s := &jsonschema.Schema{Type: "array"}
		if len(val) == 0 {
			return s
		}
		items := make([]*jsonschema.Schema, 0, len(val))
		for _, e := range val {
			items = append(items, SchemaOf(e))
		}
		s.Items = merge(items)
		return s
	}
	return &jsonschema.Schema{Type: scalarType(v)}
}

func scalarType(v any) string {
	switch analyzer.Infer(v).Kind {
	case analyzer.KindNull:
		return "null"
	case analyzer.KindBoolean:
		return "boolean"
	case analyzer.KindInteger:
		return "integer"
	case analyzer.KindFloat:
		return "number"
	default:
		return "string"
	}
}

func merge(schemas []*jsonschema.Schema) *jsonschema.Schema {
	switch len(schemas) {
	case 0:
		return &jsonschema.Schema{}
	case 1:
		return schemas[0]
	}

	seen := make(map[string]bool)
	var objects, arrays []*jsonschema.Schema
	var scalars []string
	for _, s := range schemas {
		switch s.Type {
		case "":
			continue
		case "object":
			objects = append(objects, s)
		case "array":
			arrays = append(arrays, s)
		default:
			if !seen[s.Type] {
				scalars = append(scalars, s.Type)
			}
		}
		seen[s.Type] = true
	}

	// integer values widen into number
	if seen["integer"] && seen["number"] {
		scalars = without(scalars, "integer")
	}
	sort.Strings(scalars)

	var anyOf []*jsonschema.Schema
	if len(objects) > 0 {
		anyOf = append(anyOf, mergeObjects(objects))
	}
	if len(arrays) > 0 {
		anyOf = append(anyOf, mergeArrays(arrays))
	}
	for _, t := range scalars {
		anyOf = append(anyOf, &jsonschema.Schema{Type: t})
	}

	switch len(anyOf) {
	case 0:
		return &jsonschema.Schema{}
	case 1:
		return anyOf[0]
	}
	return &jsonschema.Schema{AnyOf: anyOf}
}

func without(list []string, drop string) []string {
	out := list[:0]
	for _, s := range list {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}

func mergeObjects(schemas []*jsonschema.Schema) *jsonschema.Schema {
	if len(schemas) == 1 {
		return schemas[0]
	}

	var order []string
	props := make(map[string][]*jsonschema.Schema)
	for _, s := range schemas {
		if s.Properties == nil {
			continue
		}
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if _, ok := props[pair.Key]; !ok {
				order = append(order, pair.Key)
			}
			props[pair.Key] = append(props[pair.Key], pair.Value)
		}
	}

	merged := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	for _, k := range order {
		merged.Properties.Set(k, merge(props[k]))
	}
	return merged
}

func mergeArrays(schemas []*jsonschema.Schema) *jsonschema.Schema {
	if len(schemas) == 1 {
		return schemas[0]
	}
	var items []*jsonschema.Schema
	for _, s := range schemas {
		if s.Items != nil {
			items = append(items, s.Items)
		}
	}
	out := &jsonschema.Schema{Type: "array"}
	if len(items) > 0 {
		out.Items = merge(items)
	}
	return out
}

// markRequired sets Required on object schemas to the properties present in
// every sample, recursing into nested objects and arrays of objects.
func markRequired(schema *jsonschema.Schema, samples []any, nullableOptional bool) {
	if schema.Type != "object" || schema.Properties == nil {
		return
	}

	var objects []*analyzer.Object
	for _, s := range samples {
		if obj, ok := s.(*analyzer.Object); ok && obj != nil {
			objects = append(objects, obj)
		}
	}
	if len(objects) == 0 {
		return
	}

	var required []string
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		present, nulls := 0, 0
		for _, obj := range objects {
			v, ok := obj.Get(pair.Key)
			if !ok {
				continue
			}
			present++
			if v == nil {
				nulls++
			}
		}
		if present == len(samples) && !(nullableOptional && nulls > 0) {
			required = append(required, pair.Key)
		}

		if obj := member(pair.Value, "object"); obj != nil {
			if nested := childValues(pair.Key, samples); len(nested) > 0 {
				markRequired(obj, nested, nullableOptional)
			}
		}
		if arr := member(pair.Value, "array"); arr != nil && arr.Items != nil && arr.Items.Type == "object" {
			if items := childItems(pair.Key, samples); len(items) > 0 {
				markRequired(arr.Items, items, nullableOptional)
			}
		}
	}
	if len(required) > 0 {
		schema.Required = required
	}
}

// member returns schema when it has type typ, or its anyOf branch of that
// type.
func member(schema *jsonschema.Schema, typ string) *jsonschema.Schema {
	if schema.Type == typ {
		return schema
	}
	for _, s := range schema.AnyOf {
		if s.Type == typ {
			return s
		}
	}
	return nil
}

// childValues returns the non-null values of key across samples.
func childValues(key string, samples []any) []any {
	var out []any
	for _, s := range samples {
		obj, ok := s.(*analyzer.Object)
		if !ok || obj == nil {
			continue
		}
		if v, ok := obj.Get(key); ok && v != nil {
			out = append(out, v)
		}
	}
	return out
}

// childItems returns the non-null elements of every array stored at key.
func childItems(key string, samples []any) []any {
	var out []any
	for _, v := range childValues(key, samples) {
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		for _, item := range arr {
			if item != nil {
				out = append(out, item)
			}
		}
	}
	return out
}
