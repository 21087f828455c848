package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// BuildRows projects records onto cols. Each record is flattened with the
// result's depth and every value is converted to the Go type its column
// stores. Non-object records are skipped.
func BuildRows(res *analyzer.Result, cols []analyzer.Column, records []any) ([][]any, error) {
	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		if _, ok := rec.(*analyzer.Object); !ok {
			continue
		}
		projected := analyzer.Project(rec, res.FlattenDepth)
		row := make([]any, len(cols))
		for j, col := range cols {
			v, _ := projected.Get(col.Path)
			cv, err := ConvertValue(v, col.Type)
			if err != nil {
				return nil, fmt.Errorf("record %d, field %s: %w", i, col.Path, err)
			}
			row[j] = cv
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ConvertValue maps a decoded JSON value onto the column type t:
// integer -> int64, float -> float64, boolean -> bool, json and arrays ->
// JSON text, everything else -> string. Null stays nil.
func ConvertValue(v any, t analyzer.Type) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t.Kind {
	case analyzer.KindInteger:
		return toInt64(v)
	case analyzer.KindFloat:
		return toFloat64(v)
	case analyzer.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %s", analyzer.Infer(v))
		}
		return b, nil
	case analyzer.KindJSON, analyzer.KindArray:
		return jsonText(v)
	default:
		return toText(v)
	}
}

func toInt64(v any) (any, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil || f != float64(int64(f)) {
			return nil, fmt.Errorf("value %s does not fit an integer column", n)
		}
		return int64(f), nil
	case float64:
		if n != float64(int64(n)) {
			return nil, fmt.Errorf("value %v does not fit an integer column", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return nil, fmt.Errorf("expected integer, got %s", analyzer.Infer(v))
	}
}

func toFloat64(v any) (any, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("value %s does not fit a float column", n)
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return nil, fmt.Errorf("expected number, got %s", analyzer.Infer(v))
	}
}

func toText(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		return jsonText(v)
	}
}

func jsonText(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
