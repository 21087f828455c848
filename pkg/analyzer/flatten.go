package analyzer

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// PathSeparator joins object keys into a field path.
const PathSeparator = "."

// Fields maps field paths to types in discovery order.
type Fields = orderedmap.OrderedMap[string, Type]

// NewFields returns an empty Fields map.
func NewFields() *Fields {
	return orderedmap.New[string, Type]()
}

// Flatten projects record onto field path -> type, descending at most
// maxDepth object levels (maxDepth <= 0 selects DefaultFlattenDepth).
// Anything below the bound, and every array whose first element is an object,
// becomes a single JSON leaf. Arrays of other values are typed by their first
// element only. When two keys produce the same path the first one wins.
// Non-object records flatten to an empty map.
func Flatten(record any, maxDepth int) *Fields {
	out := NewFields()
	walkRecord(record, maxDepth, func(path string, t Type, _ any) {
		if _, seen := out.Get(path); !seen {
			out.Set(path, t)
		}
	})
	return out
}

// Project walks record exactly like Flatten but yields the value found at
// each field path. JSON leaves carry the whole collapsed subtree.
func Project(record any, maxDepth int) *Object {
	out := NewObject()
	walkRecord(record, maxDepth, func(path string, _ Type, v any) {
		if _, seen := out.Get(path); !seen {
			out.Set(path, v)
		}
	})
	return out
}

type visitFunc func(path string, t Type, v any)

func walkRecord(record any, maxDepth int, visit visitFunc) {
	if maxDepth <= 0 {
		maxDepth = DefaultFlattenDepth
	}
	obj, ok := asObject(record)
	if !ok {
		return
	}
	walkObject(obj, "", 0, maxDepth, visit)
}

func walkObject(obj *Object, prefix string, depth, maxDepth int, visit visitFunc) {
	if depth >= maxDepth {
		visit(prefix, JSON, obj)
		return
	}

	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		path := pair.Key
		if prefix != "" {
			path = prefix + PathSeparator + pair.Key
		}

		switch val := pair.Value.(type) {
		case nil:
			visit(path, Null, nil)

		case []any:
			visit(path, arrayFieldType(val), val)

		case *Object:
			switch {
			case val == nil:
				visit(path, Null, nil)
			case depth+1 >= maxDepth:
				visit(path, JSON, val)
			default:
				walkObject(val, path, depth+1, maxDepth, visit)
			}

		default:
			visit(path, Infer(val), val)
		}
	}
}

// arrayFieldType types an array-valued field from its first element.
func arrayFieldType(arr []any) Type {
	if len(arr) == 0 {
		return EmptyArray
	}
	elem := Infer(arr[0])
	if elem.Kind == KindJSON {
		return JSON
	}
	return ArrayOf(elem)
}
