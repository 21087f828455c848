package mcpsrv

import (
	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/ingest"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same pipeline as builtin tools.
type Deps struct {
	Service *ingest.Service
	Config  *config.Config
}
