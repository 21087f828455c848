package tools

import (
	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/eventlog"
	"github.com/usestring/storeadvisor/internal/ingest"
	"github.com/usestring/storeadvisor/pkg/jsoncompact"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Service *ingest.Service
	Config  *config.Config
}

// Events returns the event log, or nil when it is disabled.
func (d *Deps) Events() *eventlog.Log {
	return d.Service.Events()
}

// CompactOptions returns the configured compaction limits for tool output.
func (d *Deps) CompactOptions() *jsoncompact.Options {
	return &jsoncompact.Options{
		MaxArrayItems: d.Config.CompactMaxArrayItems,
		MaxStringLen:  d.Config.CompactMaxStringLen,
		MaxDepth:      d.Config.CompactMaxDepth,
	}
}
