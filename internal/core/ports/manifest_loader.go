package ports

import "github.com/pindown/pindown/internal/core/domain"

// ManifestLoader defines the interface for reading and normalizing a
// package manifest from disk.
//
//go:generate mockgen -source=manifest_loader.go -destination=mocks/mock_manifest_loader.go -package=mocks
type ManifestLoader interface {
	// Load reads the manifest at path and normalizes its descriptors.
	Load(path string) (*domain.Manifest, error)
}
