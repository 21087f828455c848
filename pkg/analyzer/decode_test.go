package analyzer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KeepsKeyOrder(t *testing.T) {
	v, err := Decode([]byte(`{"z": 1, "a": {"y": 2, "b": 3}}`))
	require.NoError(t, err)

	obj, ok := asObject(v)
	require.True(t, ok)

	var keys []string
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"z", "a"}, keys)

	inner, _ := obj.Get("a")
	out, err := json.Marshal(inner)
	require.NoError(t, err)
	assert.Equal(t, `{"y":2,"b":3}`, string(out))
}

func TestDecode_Numbers(t *testing.T) {
	v, err := Decode([]byte(`[1, 2.5, 12345678901234567890]`))
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1"), json.Number("2.5"), json.Number("12345678901234567890")}, v)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"truncated object", `{"a": 1`},
		{"truncated array", `[1, 2`},
		{"bad literal", `[tru]`},
		{"trailing data", `{} {}`},
		{"trailing garbage", `[1] x`},
		{"missing value", `{"a":}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeReader(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.Contains(t, err.Error(), "invalid JSON")
		})
	}
}

type sampleRow struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestCanonicalize(t *testing.T) {
	v, err := Canonicalize([]any{sampleRow{Name: "a", Age: 3}, map[string]any{"b": 1, "a": nil}})
	require.NoError(t, err)

	arr := v.([]any)
	first, ok := asObject(arr[0])
	require.True(t, ok)
	age, _ := first.Get("age")
	assert.Equal(t, json.Number("3"), age)

	second, ok := asObject(arr[1])
	require.True(t, ok)
	assert.Equal(t, "a", second.Oldest().Key)
}

func TestToPlain(t *testing.T) {
	v := mustDecode(t, `{"a": [{"b": 1}], "c": null}`)
	plain := ToPlain(v)
	assert.Equal(t, map[string]any{
		"a": []any{map[string]any{"b": json.Number("1")}},
		"c": nil,
	}, plain)
}
