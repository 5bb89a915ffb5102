package index

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"github.com/pindown/pindown/internal/core/ports"
)

// NodeID is the unique identifier for the package index Graft node.
const NodeID graft.ID = "adapter.package_index"

// EnvIndexPath overrides the catalog database location.
const EnvIndexPath = "PINDOWN_INDEX"

func init() {
	graft.Register(graft.Node[ports.PackageIndex]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PackageIndex, error) {
			path := DefaultPath()
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, err
			}
			return Open(path)
		},
	})
}

// DefaultPath returns the catalog database location, honoring the
// PINDOWN_INDEX override.
func DefaultPath() string {
	if path := os.Getenv(EnvIndexPath); path != "" {
		return path
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = "."
	}
	return filepath.Join(cacheDir, "pindown", "index.sqlite")
}
