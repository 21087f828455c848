// Package selector picks the record collection out of an uploaded JSON
// document with a jq expression, e.g. ".data.items" for wrapped payloads.
package selector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// ErrNoMatch is returned when an expression selects nothing.
var ErrNoMatch = errors.New("records path matched nothing")

// Selector is a compiled records path.
type Selector struct {
	expr string
	code *gojq.Code
}

// Compile parses and compiles expr. The selected locations are computed with
// path(expr), so expr must be a path expression such as ".data" or
// ".pages[].items".
func Compile(expr string) (*Selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "." {
		return &Selector{expr: "."}, nil
	}

	query, err := gojq.Parse("path(" + expr + ")")
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid records path %q at position %d: %w", expr, parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid records path %q: %w", expr, err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile records path %q: %w", expr, err)
	}
	return &Selector{expr: expr, code: code}, nil
}

// String returns the expression the selector was compiled from.
func (s *Selector) String() string {
	return s.expr
}

// Select returns the value at the selected location inside v, keeping object
// key order. When the expression yields several locations their values are
// returned as an array, in output order. Locations holding null are skipped.
func (s *Selector) Select(v any) (any, error) {
	if s.code == nil {
		return v, nil
	}

	var selected []any
	iter := s.code.Run(toJQ(v))
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			return nil, fmt.Errorf("records path %q: %w", s.expr, err)
		}
		path, ok := out.([]any)
		if !ok {
			return nil, fmt.Errorf("records path %q: unexpected path %v", s.expr, out)
		}
		val, found := walk(v, path)
		if !found || val == nil {
			continue
		}
		selected = append(selected, val)
	}

	switch len(selected) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, s.expr)
	case 1:
		return selected[0], nil
	default:
		return selected, nil
	}
}

// Select compiles expr and applies it to v.
func Select(v any, expr string) (any, error) {
	s, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return s.Select(v)
}

// walk follows a jq path (string keys and integer indices) through the
// ordered value.
func walk(v any, path []any) (any, bool) {
	cur := v
	for _, step := range path {
		switch key := step.(type) {
		case string:
			obj, ok := cur.(*analyzer.Object)
			if !ok || obj == nil {
				return nil, false
			}
			next, ok := obj.Get(key)
			if !ok {
				return nil, false
			}
			cur = next
		default:
			idx, ok := index(key)
			arr, isArr := cur.([]any)
			if !ok || !isArr {
				return nil, false
			}
			if idx < 0 {
				idx += len(arr)
			}
			if idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
		}
	}
	return cur, true
}

func index(step any) (int, bool) {
	switch n := step.(type) {
	case int:
		return n, true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// toJQ converts an ordered value into the plain form gojq evaluates. Only
// the structure matters for path(), so numbers are converted loosely.
func toJQ(v any) any {
	switch t := v.(type) {
	case *analyzer.Object:
		if t == nil {
			return nil
		}
		out := make(map[string]any, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = toJQ(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toJQ(e)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
