package analyzer

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TypeUnion accumulates, per field path, every type observed across the
// sampled records. Paths keep first-observation order and are never removed.
type TypeUnion struct {
	sets *orderedmap.OrderedMap[string, []Type]
}

// NewTypeUnion returns an empty accumulator.
func NewTypeUnion() *TypeUnion {
	return &TypeUnion{sets: orderedmap.New[string, []Type]()}
}

// Observe merges one record's flattened fields.
func (u *TypeUnion) Observe(fields *Fields) {
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		u.Add(pair.Key, pair.Value)
	}
}

// Add records that path was seen with type t.
func (u *TypeUnion) Add(path string, t Type) {
	set, _ := u.sets.Get(path)
	for _, existing := range set {
		if existing.Equal(t) {
			return
		}
	}
	u.sets.Set(path, append(set, t))
}

// Len returns the number of distinct paths observed.
func (u *TypeUnion) Len() int {
	return u.sets.Len()
}

// Resolve maps every observed path to exactly one type.
func (u *TypeUnion) Resolve() *Fields {
	out := NewFields()
	for pair := u.sets.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, ResolveTypes(pair.Value))
	}
	return out
}

// ResolveTypes collapses a set of observed types into one: a single member is
// itself, JSON beats everything, Text beats the rest, and otherwise the
// members form a union labeled by their sorted, pipe-joined labels.
// An empty set resolves to Null.
func ResolveTypes(set []Type) Type {
	switch len(set) {
	case 0:
		return Null
	case 1:
		return set[0]
	}
	hasText := false
	for _, t := range set {
		switch t.Kind {
		case KindJSON:
			return JSON
		case KindText:
			hasText = true
		}
	}
	if hasText {
		return Text
	}
	return unionOf(set)
}
