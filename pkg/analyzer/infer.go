package analyzer

import (
	"encoding/json"
	"math"
)

// Infer classifies a single value. It never descends into objects: a bare
// object is opaque JSON. Arrays are typed by their elements; an array whose
// elements are all objects is JSON as well.
func Infer(v any) Type {
	switch val := v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case string:
		return Text
	case json.Number:
		return inferNumber(val)
	case float64:
		return floatKind(val)
	case float32:
		return floatKind(float64(val))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer
	case []any:
		return inferArray(val)
	case *Object:
		if val == nil {
			return Null
		}
		return JSON
	default:
		return Text
	}
}

func inferArray(arr []any) Type {
	if len(arr) == 0 {
		return EmptyArray
	}
	first := Infer(arr[0])
	for _, e := range arr[1:] {
		if !Infer(e).Equal(first) {
			return ArrayOf(Mixed)
		}
	}
	if first.Kind == KindJSON {
		return JSON
	}
	return ArrayOf(first)
}

func inferNumber(n json.Number) Type {
	f, err := n.Float64()
	if err != nil {
		// Out of float64 range; only a plain integer literal is an integer.
		if _, ierr := n.Int64(); ierr == nil {
			return Integer
		}
		return Float
	}
	return floatKind(f)
}

func floatKind(f float64) Type {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Float
	}
	if math.Trunc(f) == f {
		return Integer
	}
	return Float
}
