// Package backends links every store implementation into the binary so
// store.OpenRelational and store.OpenDocument can find them by kind.
package backends

import (
	_ "github.com/usestring/storeadvisor/internal/store/mongo"
	_ "github.com/usestring/storeadvisor/internal/store/postgres"
	_ "github.com/usestring/storeadvisor/internal/store/sqlstore"
)
