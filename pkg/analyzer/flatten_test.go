package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxDepth int
		expected map[string]string
	}{
		{
			name:     "scalars",
			input:    `{"a": 1, "b": "x", "c": true, "d": null, "e": 1.5}`,
			expected: map[string]string{"a": "integer", "b": "text", "c": "boolean", "d": "null", "e": "float"},
		},
		{
			name:     "arrays",
			input:    `{"empty": [], "ints": [1, "x"], "objs": [{"a": 1}, 2]}`,
			expected: map[string]string{"empty": "array", "ints": "array<integer>", "objs": "json"},
		},
		{
			name:     "nested arrays",
			input:    `{"grid": [[1, 2]], "matrix": [[{"a": 1}]]}`,
			expected: map[string]string{"grid": "array<array<integer>>", "matrix": "json"},
		},
		{
			name:     "one level recursed",
			input:    `{"user": {"name": "a", "age": 3}}`,
			expected: map[string]string{"user.name": "text", "user.age": "integer"},
		},
		{
			name:     "second level collapses",
			input:    `{"a": {"b": {"c": {"d": 1}}, "e": 1}}`,
			expected: map[string]string{"a.b": "json", "a.e": "integer"},
		},
		{
			name:     "empty nested object leaves no path",
			input:    `{"a": {}, "b": 1}`,
			expected: map[string]string{"b": "integer"},
		},
		{
			name:     "depth one collapses every object",
			input:    `{"a": {"b": 1}, "c": 2}`,
			maxDepth: 1,
			expected: map[string]string{"a": "json", "c": "integer"},
		},
		{
			name:     "depth three",
			input:    `{"a": {"b": {"c": {"d": 1}}}}`,
			maxDepth: 3,
			expected: map[string]string{"a.b.c": "json"},
		},
		{
			name:     "non-object record",
			input:    `[1, 2]`,
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fieldLabels(Flatten(mustDecode(t, tt.input), tt.maxDepth)))
		})
	}
}

func TestFlatten_NeverPastDefaultBound(t *testing.T) {
	deep := `{"l1": {"l2": {"l3": {"l4": {"l5": {"l6": 1}}}}}}`
	fields := Flatten(mustDecode(t, deep), DefaultFlattenDepth)

	require.Equal(t, 1, fields.Len())
	typ, ok := fields.Get("l1.l2")
	require.True(t, ok)
	assert.Equal(t, JSON, typ)
}

func TestFlatten_KeepsDocumentOrder(t *testing.T) {
	fields := Flatten(mustDecode(t, `{"z": 1, "m": {"y": 1, "b": 2}, "a": 3}`), 0)

	var keys []string
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"z", "m.y", "m.b", "a"}, keys)
}

func TestFlatten_FirstWriterWins(t *testing.T) {
	// "a.b" as a literal key collides with the path of a -> b.
	fields := Flatten(mustDecode(t, `{"a.b": "first", "a": {"b": 2}}`), 0)

	require.Equal(t, 1, fields.Len())
	typ, _ := fields.Get("a.b")
	assert.Equal(t, Text, typ)
}

func TestProject(t *testing.T) {
	rec := mustDecode(t, `{"id": 7, "user": {"name": "a", "geo": {"lat": 1}}, "tags": ["x"]}`)
	row := Project(rec, 0)

	var keys []string
	for pair := row.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"id", "user.name", "user.geo", "tags"}, keys)

	id, _ := row.Get("id")
	assert.Equal(t, json.Number("7"), id)

	geo, _ := row.Get("user.geo")
	out, err := json.Marshal(geo)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat": 1}`, string(out))

	tags, _ := row.Get("tags")
	assert.Equal(t, []any{"x"}, tags)
}
