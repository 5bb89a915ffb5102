package ports

import (
	"context"

	"github.com/pindown/pindown/internal/core/domain"
)

// PackageIndex defines the interface for pinning inputs and opening
// readers over their package catalogs.
//
//go:generate mockgen -source=index.go -destination=mocks/mock_index.go -package=mocks
type PackageIndex interface {
	// Lock pins a source reference to a concrete revision.
	Lock(ctx context.Context, ref domain.SourceRef) (*domain.LockedInput, error)

	// Open returns a reader over the catalog of a pinned input.
	Open(ctx context.Context, input *domain.LockedInput) (IndexReader, error)
}

// IndexReader searches the package catalog of a single pinned input.
type IndexReader interface {
	// Search returns the candidates matching query, best match first.
	Search(ctx context.Context, query domain.PkgQuery) ([]domain.PkgRow, error)

	// Close releases the reader.
	Close() error
}
