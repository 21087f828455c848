package analyzer

import (
	"encoding/json"
	"sort"
	"strings"
)

// Kind is the tag of a Type.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindText
	KindJSON
	KindArray
	// KindMixed only appears as the element of an array whose elements
	// disagree on their type.
	KindMixed
	// KindUnion is produced by TypeUnion.Resolve when a path carries several
	// types none of which dominates.
	KindUnion
)

// Type is the inferred type of a JSON value or a field path.
//
// Array types carry their element type in Elem; a nil Elem is the bare
// "array" of an empty array. Union types carry their members, sorted by
// label.
type Type struct {
	Kind    Kind
	Elem    *Type
	Members []Type
}

// Shorthand values for the scalar kinds.
var (
	Null    = Type{Kind: KindNull}
	Boolean = Type{Kind: KindBoolean}
	Integer = Type{Kind: KindInteger}
	Float   = Type{Kind: KindFloat}
	Text    = Type{Kind: KindText}
	JSON    = Type{Kind: KindJSON}
	Mixed   = Type{Kind: KindMixed}

	// EmptyArray is the type of an array with no elements.
	EmptyArray = Type{Kind: KindArray}
)

// ArrayOf returns the array type with element type elem.
func ArrayOf(elem Type) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e}
}

// IsArray reports whether t is any array type.
func (t Type) IsArray() bool {
	return t.Kind == KindArray
}

// Equal reports whether t and o describe the same type.
func (t Type) Equal(o Type) bool {
	return t.String() == o.String()
}

// String returns the result-boundary label of the type, e.g. "integer",
// "array<text>" or "float|integer".
func (t Type) String() string {
	switch t.Kind {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	case KindMixed:
		return "mixed"
	case KindArray:
		if t.Elem == nil {
			return "array"
		}
		return "array<" + t.Elem.String() + ">"
	case KindUnion:
		labels := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			labels = append(labels, m.String())
		}
		return strings.Join(labels, "|")
	default:
		return "text"
	}
}

// MarshalJSON encodes the type as its label.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// MarshalYAML encodes the type as its label.
func (t Type) MarshalYAML() (any, error) {
	return t.String(), nil
}

// unionOf builds a union type with members sorted by label so that the
// result does not depend on observation order.
func unionOf(members []Type) Type {
	sorted := append([]Type(nil), members...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})
	return Type{Kind: KindUnion, Members: sorted}
}
