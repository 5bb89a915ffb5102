package ports

import "github.com/pindown/pindown/internal/core/domain"

// LockfileStore defines the interface for reading and writing lockfiles.
//
//go:generate mockgen -source=lockfile_store.go -destination=mocks/mock_lockfile_store.go -package=mocks
type LockfileStore interface {
	// Read loads and validates the lockfile at path.
	// Returns nil, nil if the file does not exist.
	Read(path string) (*domain.Lockfile, error)

	// Write persists the lockfile to path atomically.
	Write(path string, lockfile *domain.Lockfile) error
}
