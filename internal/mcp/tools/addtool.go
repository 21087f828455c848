package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool with the server after checking that the zero value
// of its output type passes the schema the SDK infers for it.
//
// Panics if the zero value of Out fails schema validation.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// CheckOutputSchema validates an output type against the schema the SDK
// infers for it. Two mismatches are caught at registration:
//
//   - nil slices marshal as null where the schema says "array"; tag them
//     omitzero
//   - fields whose type has its own MarshalJSON (json.RawMessage, ordered
//     objects) are inferred from their Go layout, not their JSON; declare
//     them as any
//
// No-ops for the untyped "any" output or when schema inference itself fails
// (the SDK reports those).
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	elem := rt
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}

	if paths := customMarshalerFields(elem, nil, make(map[reflect.Type]bool)); len(paths) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: output type %s has custom JSON marshalers at %s\n"+
				"  the inferred schema follows the Go type, not the marshaled JSON\n"+
				"  Fix: declare the field as any and assign the value (ordered objects keep their key order)",
			toolName, elem, strings.Join(paths, ", "),
		))
	}

	schema, err := jsonschema.ForType(elem, &jsonschema.ForOptions{})
	if err != nil {
		return
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return
	}

	data, err := json.Marshal(reflect.Zero(elem).Interface())
	if err != nil {
		return
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}

	if err := resolved.Validate(&v); err != nil {
		panic(fmt.Sprintf(
			"AddTool %q: zero value of output type %s fails schema validation: %v\n"+
				"  JSON: %s\n"+
				"  Fix: add `omitzero` to nil-defaulting slice fields, or initialize them to empty slices",
			toolName, elem, err, data,
		))
	}
}

var (
	marshalerType = reflect.TypeFor[json.Marshaler]()
	timeType      = reflect.TypeFor[time.Time]()
)

// marshalsItself reports whether t (or *t) implements json.Marshaler.
// time.Time is exempt: the schema generator knows its string form.
func marshalsItself(t reflect.Type) bool {
	if t == timeType || t.Kind() == reflect.Interface {
		return false
	}
	return t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType)
}

// customMarshalerFields walks t and returns the paths of exported fields,
// elements and map values whose type marshals itself.
func customMarshalerFields(t reflect.Type, path []string, visited map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if len(path) > 0 && marshalsItself(t) {
		return []string{strings.Join(path, ".")}
	}
	if visited[t] {
		return nil
	}
	visited[t] = true
	defer delete(visited, t)

	var found []string
	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			found = append(found, customMarshalerFields(f.Type, append(path, f.Name), visited)...)
		}
	case reflect.Slice, reflect.Array:
		found = append(found, customMarshalerFields(t.Elem(), append(path, "[]"), visited)...)
	case reflect.Map:
		found = append(found, customMarshalerFields(t.Elem(), append(path, "[value]"), visited)...)
	}
	return found
}
