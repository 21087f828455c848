// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/usestring/storeadvisor/pkg/analyzer"
	"github.com/usestring/storeadvisor/pkg/jsoncompact"
)

// Upload and ingest defaults
const (
	DefaultMaxUploadBytes      = 10 << 20
	DefaultIngestWorkers       = 4
	DefaultCacheMaxItems       = 256
	DefaultHistoryLimit        = 20
	DefaultProfileMaxDocuments = 1000
	MaxHistoryLimit            = 1000
)

// Config holds all configuration for the analysis services.
type Config struct {
	// Analysis
	MaxSample           int    // MAX_SAMPLE, default 100
	FlattenDepth        int    // FLATTEN_DEPTH, default 2
	RecordsPath         string // RECORDS_PATH, default "" (whole document)
	MaxUploadBytes      int64  // MAX_UPLOAD_BYTES, default 10 MiB
	ValidateAllRecords  bool   // VALIDATE_ALL_RECORDS, default true
	ProfileMaxDocuments int    // PROFILE_MAX_DOCUMENTS, default 1000 (0 disables profiling)

	// HTTP API
	HTTPAddr        string        // HTTP_ADDR, default ":8080"
	HTTPReadTimeout time.Duration // HTTP_READ_TIMEOUT_MS, default 30000ms (30s)

	// Stores
	StoreEnabled      bool   // STORE_ENABLED, default false (analysis only)
	RelationalBackend string // RELATIONAL_BACKEND, default "postgres"
	RelationalDSN     string // RELATIONAL_DSN
	RelationalTable   string // RELATIONAL_TABLE, default "imported_table"
	MongoURI          string // MONGO_URI, default "mongodb://localhost:27017"
	MongoDBName       string // MONGO_DB_NAME, default "storeadvisor"
	MongoCollection   string // MONGO_COLLECTION, default "documents"

	// Ingest
	EventDBPath           string        // EVENT_DB_PATH, default "storeadvisor-events.db"
	InboxDir              string        // INBOX_DIR, default "" (watcher disabled)
	InboxDebounce         time.Duration // INBOX_DEBOUNCE_MS, default 500ms
	IngestWorkers         int           // INGEST_WORKERS, default 4
	AnalysisCacheMaxItems int           // ANALYSIS_CACHE_MAX_ITEMS, default 256

	// Compaction defaults (for MCP tool responses)
	CompactMaxArrayItems int // COMPACT_MAX_ARRAY_ITEMS
	CompactMaxStringLen  int // COMPACT_MAX_STRING_LEN
	CompactMaxDepth      int // COMPACT_MAX_DEPTH

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		MaxSample:           getEnvInt("MAX_SAMPLE", analyzer.DefaultMaxSample),
		FlattenDepth:        getEnvInt("FLATTEN_DEPTH", analyzer.DefaultFlattenDepth),
		RecordsPath:         getEnvString("RECORDS_PATH", ""),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		ValidateAllRecords:  getEnvBool("VALIDATE_ALL_RECORDS", true),
		ProfileMaxDocuments: getEnvInt("PROFILE_MAX_DOCUMENTS", DefaultProfileMaxDocuments),

		HTTPAddr:        getEnvString("HTTP_ADDR", ":8080"),
		HTTPReadTimeout: getEnvDurationMs("HTTP_READ_TIMEOUT_MS", 30000),

		StoreEnabled:      getEnvBool("STORE_ENABLED", false),
		RelationalBackend: getEnvString("RELATIONAL_BACKEND", "postgres"),
		RelationalDSN:     getEnvString("RELATIONAL_DSN", ""),
		RelationalTable:   getEnvString("RELATIONAL_TABLE", analyzer.DefaultTable),
		MongoURI:          getEnvString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:       getEnvString("MONGO_DB_NAME", "storeadvisor"),
		MongoCollection:   getEnvString("MONGO_COLLECTION", "documents"),

		EventDBPath:           getEnvString("EVENT_DB_PATH", "storeadvisor-events.db"),
		InboxDir:              getEnvString("INBOX_DIR", ""),
		InboxDebounce:         getEnvDurationMs("INBOX_DEBOUNCE_MS", 500),
		IngestWorkers:         getEnvInt("INGEST_WORKERS", DefaultIngestWorkers),
		AnalysisCacheMaxItems: getEnvInt("ANALYSIS_CACHE_MAX_ITEMS", DefaultCacheMaxItems),

		// Compaction defaults (from jsoncompact package)
		CompactMaxArrayItems: getEnvInt("COMPACT_MAX_ARRAY_ITEMS", jsoncompact.DefaultMaxArrayItems),
		CompactMaxStringLen:  getEnvInt("COMPACT_MAX_STRING_LEN", jsoncompact.DefaultMaxStringLen),
		CompactMaxDepth:      getEnvInt("COMPACT_MAX_DEPTH", jsoncompact.DefaultMaxDepth),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
	}
}

// AnalyzerOptions returns the analysis options implied by the configuration.
func (c *Config) AnalyzerOptions() []analyzer.Option {
	return []analyzer.Option{
		analyzer.WithMaxSample(c.MaxSample),
		analyzer.WithFlattenDepth(c.FlattenDepth),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
