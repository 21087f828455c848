package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

func TestKey(t *testing.T) {
	data := []byte(`[{"a":1}]`)
	p := Params{MaxSample: 100, FlattenDepth: 2}

	assert.Equal(t, Key(data, p), Key(data, p))
	assert.NotEqual(t, Key(data, p), Key([]byte(`[{"a":2}]`), p))
	assert.NotEqual(t, Key(data, p), Key(data, Params{MaxSample: 10, FlattenDepth: 2}))
	assert.NotEqual(t, Key(data, p), Key(data, Params{RecordsPath: ".items", MaxSample: 100, FlattenDepth: 2}))
	assert.Regexp(t, `^[0-9a-f]{64}\|\|100\|2$`, Key(data, p))
}

func TestAnalysisCache(t *testing.T) {
	c, err := NewAnalysisCache(2)
	require.NoError(t, err)

	res := &analyzer.Result{Database: analyzer.Relational}
	c.Put("a", res)
	c.Put("b", &analyzer.Result{})
	c.Put("c", &analyzer.Result{})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")

	c.Put("a", res)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, res, got)
}

func TestNewAnalysisCache_InvalidSize(t *testing.T) {
	_, err := NewAnalysisCache(0)
	assert.Error(t, err)
}
