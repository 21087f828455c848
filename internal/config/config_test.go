package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"MAX_SAMPLE", "FLATTEN_DEPTH", "STORE_ENABLED", "HTTP_ADDR", "RELATIONAL_TABLE", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, analyzer.DefaultMaxSample, cfg.MaxSample)
	assert.Equal(t, analyzer.DefaultFlattenDepth, cfg.FlattenDepth)
	assert.False(t, cfg.StoreEnabled)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, analyzer.DefaultTable, cfg.RelationalTable)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MAX_SAMPLE", "25")
	t.Setenv("STORE_ENABLED", "yes")
	t.Setenv("HTTP_READ_TIMEOUT_MS", "1500")
	t.Setenv("INGEST_WORKERS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 25, cfg.MaxSample)
	assert.True(t, cfg.StoreEnabled)
	assert.Equal(t, 1500*time.Millisecond, cfg.HTTPReadTimeout)
	assert.Equal(t, DefaultIngestWorkers, cfg.IngestWorkers)
	assert.Equal(t, DefaultProfileMaxDocuments, cfg.ProfileMaxDocuments)
	assert.Len(t, cfg.AnalyzerOptions(), 2)
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"1", false, true},
		{"on", false, true},
		{"off", true, false},
		{"maybe", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("CONFIG_TEST_BOOL", tt.value)
			assert.Equal(t, tt.expected, getEnvBool("CONFIG_TEST_BOOL", tt.def))
		})
	}
}
