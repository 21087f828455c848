package analyzer

// Shape describes how the top-level value was turned into records.
type Shape string

const (
	// ShapeArray is a top-level array; each element is a record.
	ShapeArray Shape = "array"
	// ShapeObjectMap is an object whose values are all objects, i.e. records
	// keyed by identifier.
	ShapeObjectMap Shape = "object-map"
	// ShapeObject is a single object treated as one record.
	ShapeObject Shape = "object"
)

// Normalize turns a top-level value into at most maxSample records. Records
// past the cap are never looked at. maxSample <= 0 selects DefaultMaxSample.
//
// The first matching rule wins: an array yields its elements, a non-empty
// object whose values are all objects yields those values, any other object
// is a single record. Everything else is an UnsupportedStructureError.
func Normalize(v any, maxSample int) ([]any, Shape, error) {
	if maxSample <= 0 {
		maxSample = DefaultMaxSample
	}

	switch val := v.(type) {
	case []any:
		n := min(len(val), maxSample)
		return val[:n:n], ShapeArray, nil

	case *Object:
		if val == nil {
			return nil, "", &UnsupportedStructureError{Kind: "null"}
		}
		if isObjectMap(val) {
			records := make([]any, 0, min(val.Len(), maxSample))
			for pair := val.Oldest(); pair != nil && len(records) < maxSample; pair = pair.Next() {
				records = append(records, pair.Value)
			}
			return records, ShapeObjectMap, nil
		}
		return []any{val}, ShapeObject, nil

	default:
		return nil, "", &UnsupportedStructureError{Kind: Infer(v).String()}
	}
}

func isObjectMap(obj *Object) bool {
	if obj.Len() == 0 {
		return false
	}
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := asObject(pair.Value); !ok {
			return false
		}
	}
	return true
}
