package backend

import (
	"fmt"

	"github.com/kalambet/lockbox/internal/secure"
)

// New creates a Backend based on the backend name.
//
// Supported backends:
//
//	"file"   - JSON secrets file in dataDir (default)
//	"sqlite" - SQLite database at dataDir/lockbox.db
//	"memory" - In-memory (ephemeral, for testing)
func New(kind, dataDir string) (secure.Backend, error) {
	switch kind {
	case "file", "":
		return NewFileBackend(dataDir)
	case "sqlite":
		return NewSQLiteBackend(dataDir)
	case "memory":
		return secure.NewMemoryBackend(nil), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q (supported: file, sqlite, memory)", kind)
	}
}
