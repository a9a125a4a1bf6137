package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"botarena.ai/internal/persistence/indexdb"
)

// openRuntimeIndex opens the read-model index for the data directory. A nil
// index with a nil error means indexing is off; the match runs the same
// either way.
func openRuntimeIndex(dataDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("BOTARENA_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "arena.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported BOTARENA_INDEX_BACKEND: %s", backend)
	}
}
