package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) any {
	t.Helper()
	v, err := Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"null", `null`, "null"},
		{"true", `true`, "boolean"},
		{"string", `"x"`, "text"},
		{"integer", `42`, "integer"},
		{"negative integer", `-7`, "integer"},
		{"whole float", `3.0`, "integer"},
		{"exponent integer", `1e3`, "integer"},
		{"float", `3.14`, "float"},
		{"huge exponent", `1e400`, "float"},
		{"object", `{"a": 1}`, "json"},
		{"empty array", `[]`, "array"},
		{"integer array", `[1, 2, 3]`, "array<integer>"},
		{"mixed array", `[1, "a"]`, "array<mixed>"},
		{"int and float array", `[1, 1.5]`, "array<mixed>"},
		{"array of objects", `[{"a": 1}, {"b": 2}]`, "json"},
		{"nested array", `[[1], [2]]`, "array<array<integer>>"},
		{"nested mixed", `[[1], ["a"]]`, "array<mixed>"},
		{"array of nulls", `[null, null]`, "array<null>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Infer(mustDecode(t, tt.input)).String())
		})
	}
}

func TestInfer_GoValues(t *testing.T) {
	assert.Equal(t, Integer, Infer(int64(3)))
	assert.Equal(t, Integer, Infer(2.0))
	assert.Equal(t, Float, Infer(float32(0.5)))
	assert.Equal(t, Null, Infer((*Object)(nil)))
	assert.Equal(t, JSON, Infer(NewObject()))
}

func TestType_Equal(t *testing.T) {
	assert.True(t, ArrayOf(Integer).Equal(ArrayOf(Integer)))
	assert.False(t, ArrayOf(Integer).Equal(ArrayOf(Text)))
	assert.False(t, EmptyArray.Equal(ArrayOf(Null)))
	assert.True(t, unionOf([]Type{Integer, Float}).Equal(unionOf([]Type{Float, Integer})))
}

func TestMeasureDepth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"flat", `{"a": 1, "b": "x"}`, 0},
		{"empty", `{}`, 0},
		{"one level", `{"a": {"b": 1}}`, 1},
		{"empty child object", `{"a": {}}`, 1},
		{"two levels", `{"a": {"b": {"c": 1}}}`, 2},
		{"longest branch wins", `{"a": {"b": 1}, "c": {"d": {"e": {"f": 1}}}}`, 3},
		{"arrays are not descended", `{"a": [{"b": {"c": 1}}]}`, 0},
		{"scalar", `5`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MeasureDepth(mustDecode(t, tt.input)))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxSample int
		count     int
		shape     Shape
	}{
		{"array", `[1, 2, 3]`, 10, 3, ShapeArray},
		{"array capped", `[1, 2, 3, 4]`, 2, 2, ShapeArray},
		{"object map", `{"a": {"x": 1}, "b": {"x": 2}}`, 10, 2, ShapeObjectMap},
		{"object map capped", `{"a": {}, "b": {}, "c": {}}`, 2, 2, ShapeObjectMap},
		{"object with scalar value", `{"a": {"x": 1}, "b": 2}`, 10, 1, ShapeObject},
		{"object with array value", `{"a": [1]}`, 10, 1, ShapeObject},
		{"object with null value", `{"a": {"x": 1}, "b": null}`, 10, 1, ShapeObject},
		{"empty object", `{}`, 10, 1, ShapeObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, shape, err := Normalize(mustDecode(t, tt.input), tt.maxSample)
			require.NoError(t, err)
			assert.Len(t, records, tt.count)
			assert.Equal(t, tt.shape, shape)
		})
	}
}

func TestNormalize_DoesNotAliasInput(t *testing.T) {
	arr := []any{1, 2, 3}
	records, _, err := Normalize(arr, 2)
	require.NoError(t, err)

	records = append(records, "x")
	assert.Equal(t, 3, arr[2])
	assert.Len(t, records, 3)
}
