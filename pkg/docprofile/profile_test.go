package docprofile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

func decodeRecords(t *testing.T, src string) []any {
	t.Helper()
	v, err := analyzer.Decode([]byte(src))
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok, "fixture must be an array")
	return arr
}

func TestSchemaOf_Scalars(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"string", `"x"`, "string"},
		{"integer", `42`, "integer"},
		{"integral float", `3.0`, "integer"},
		{"float", `3.14`, "number"},
		{"boolean", `false`, "boolean"},
		{"null", `null`, "null"},
		{"object", `{"a": 1}`, "object"},
		{"array", `[1, 2]`, "array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := analyzer.Decode([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, SchemaOf(v).Type)
		})
	}
}

func TestBuild_MergesInFirstSeenOrder(t *testing.T) {
	records := decodeRecords(t, `[
		{"title": "a", "tags": ["x"], "meta": {"views": 1}},
		{"title": "b", "author": {"name": "n", "age": 3}, "meta": {"views": 2.5, "draft": true}}
	]`)

	p := Build(records)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.Documents)
	assert.False(t, p.Uniform)

	var keys []string
	for pair := p.Schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"title", "tags", "meta", "author"}, keys)
	assert.Equal(t, []string{"title", "meta"}, p.Schema.Required)

	meta, ok := p.Schema.Properties.Get("meta")
	require.True(t, ok)
	views, ok := meta.Properties.Get("views")
	require.True(t, ok)
	assert.Equal(t, "number", views.Type, "integer widens into number")
	assert.Equal(t, []string{"views"}, meta.Required)

	tags, ok := p.Schema.Properties.Get("tags")
	require.True(t, ok)
	require.NotNil(t, tags.Items)
	assert.Equal(t, "string", tags.Items.Type)
}

func TestBuild_Unions(t *testing.T) {
	records := decodeRecords(t, `[{"v": 1}, {"v": "one"}, {"v": {"n": 1}}]`)

	p := Build(records)
	v, ok := p.Schema.Properties.Get("v")
	require.True(t, ok)
	require.Len(t, v.AnyOf, 3)
	assert.Equal(t, "object", v.AnyOf[0].Type)
	assert.Equal(t, "integer", v.AnyOf[1].Type)
	assert.Equal(t, "string", v.AnyOf[2].Type)
}

func TestBuild_NullableIsOptional(t *testing.T) {
	records := decodeRecords(t, `[{"a": 1, "b": null}, {"a": 2, "b": 3}]`)

	p := Build(records)
	assert.Equal(t, []string{"a"}, p.Schema.Required)

	opts := DefaultOptions()
	opts.NullableOptional = false
	p = BuildWithOptions(records, opts)
	assert.Equal(t, []string{"a", "b"}, p.Schema.Required)
}

func TestBuild_Uniform(t *testing.T) {
	p := Build(decodeRecords(t, `[{"a": 1}, {"a": 2}]`))
	assert.True(t, p.Uniform)
}

func TestBuild_Empty(t *testing.T) {
	assert.Nil(t, Build(nil))
}

func TestBuild_MaxDocuments(t *testing.T) {
	records := decodeRecords(t, `[{"a": 1}, {"b": 2}, {"c": 3}]`)
	p := BuildWithOptions(records, Options{MaxDocuments: 2})
	assert.Equal(t, 2, p.Documents)
	_, ok := p.Schema.Properties.Get("c")
	assert.False(t, ok)
}

func TestBuild_FieldStats(t *testing.T) {
	records := decodeRecords(t, `[
		{"id": "0b7e1a9c-3f7b-4c1e-9a55-1d1e7c6c9f01", "status": "open",   "owner": {"email": "a@x.io"}, "items": [{"sku": 1}]},
		{"id": "0b7e1a9c-3f7b-4c1e-9a55-1d1e7c6c9f02", "status": "closed", "owner": null,                "items": [{"sku": 2}, {"sku": 3}]},
		{"id": "0b7e1a9c-3f7b-4c1e-9a55-1d1e7c6c9f03", "status": "open"},
		{"id": "0b7e1a9c-3f7b-4c1e-9a55-1d1e7c6c9f04", "status": "open"},
		{"id": "0b7e1a9c-3f7b-4c1e-9a55-1d1e7c6c9f05", "status": "closed"}
	]`)

	p := Build(records)
	byPath := make(map[string]FieldStat)
	var paths []string
	for _, s := range p.Fields {
		byPath[s.Path] = s
		paths = append(paths, s.Path)
	}
	assert.Equal(t, []string{"id", "status", "owner", "owner.email", "items", "items[].sku"}, paths)

	id := byPath["id"]
	assert.Equal(t, "uuid", id.Format)
	assert.True(t, id.Required)
	assert.Equal(t, 5, id.DistinctCount)
	assert.Len(t, id.Examples, maxExamples)

	status := byPath["status"]
	assert.Equal(t, "enum", status.Format)
	assert.Equal(t, []string{"closed", "open"}, status.EnumValues)

	owner := byPath["owner"]
	assert.Equal(t, "object|null", owner.Type)
	assert.True(t, owner.Nullable)
	assert.False(t, owner.Required)
	assert.InDelta(t, 0.4, owner.Frequency, 1e-9)
	assert.Empty(t, owner.Examples)

	sku := byPath["items[].sku"]
	assert.Equal(t, "integer", sku.Type)
	assert.Equal(t, 3, sku.DistinctCount)
	assert.Equal(t, 1.0, sku.Frequency)
}

func TestProfile_MarshalsSchema(t *testing.T) {
	p := Build(decodeRecords(t, `[{"b": 1, "a": "x"}]`))
	data, err := json.Marshal(p.Schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {"b": {"type": "integer"}, "a": {"type": "string"}},
		"required": ["b", "a"]
	}`, string(data))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"iso8601", []string{"2024-01-02", "2024-01-03T10:00:00Z"}, "iso8601"},
		{"url", []string{"https://a.io", "http://b.io"}, "url"},
		{"email", []string{"a@b.io", "c@d.org"}, "email"},
		{"enum", []string{"x", "y", "x"}, "enum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := detectFormat(tt.values)
			assert.Equal(t, tt.want, got)
		})
	}

	many := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		many = append(many, string(rune('a'+i)))
	}
	got, enum := detectFormat(many)
	assert.Empty(t, got)
	assert.Nil(t, enum)
}
