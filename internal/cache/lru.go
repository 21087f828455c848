// Package cache provides caching of analysis results keyed by content.
package cache

import (
	"encoding/hex"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// Params are the analysis parameters that change a result for the same bytes.
type Params struct {
	RecordsPath  string
	MaxSample    int
	FlattenDepth int
}

// Key returns the cache key for data analyzed with p: the hex BLAKE3 digest
// of the content followed by the parameters.
func Key(data []byte, p Params) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]) + "|" + p.RecordsPath +
		"|" + strconv.Itoa(p.MaxSample) + "|" + strconv.Itoa(p.FlattenDepth)
}

// AnalysisCache provides thread-safe LRU caching for analysis results.
// Cached results are shared and must be treated as read-only.
type AnalysisCache struct {
	cache *lru.Cache[string, *analyzer.Result]
}

// NewAnalysisCache creates a new LRU cache with the specified maximum number of items.
func NewAnalysisCache(maxItems int) (*AnalysisCache, error) {
	c, err := lru.New[string, *analyzer.Result](maxItems)
	if err != nil {
		return nil, err
	}
	return &AnalysisCache{cache: c}, nil
}

// Get retrieves a result from the cache by key.
// Returns the result and true if found, nil and false otherwise.
func (c *AnalysisCache) Get(key string) (*analyzer.Result, bool) {
	return c.cache.Get(key)
}

// Put adds or updates a result in the cache.
func (c *AnalysisCache) Put(key string, res *analyzer.Result) {
	c.cache.Add(key, res)
}

// Len returns the current number of items in the cache.
func (c *AnalysisCache) Len() int {
	return c.cache.Len()
}
