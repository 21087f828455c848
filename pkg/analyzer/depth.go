package analyzer

// MeasureDepth returns the length of the longest chain of object-valued keys
// below record. A flat object is 0, an object holding an object is 1. Arrays
// are not descended into. Non-objects measure 0.
func MeasureDepth(record any) int {
	obj, ok := asObject(record)
	if !ok {
		return 0
	}
	deepest := 0
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if child, ok := asObject(pair.Value); ok {
			deepest = max(deepest, 1+MeasureDepth(child))
		}
	}
	return deepest
}
