// Package index implements the package catalog adapter backed by sqlite.
// The catalog database holds pre-scraped package listings per pinned
// input, keyed by the input's fingerprint.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pindown/pindown/internal/core/domain"
	"github.com/pindown/pindown/internal/core/ports"
	"go.trai.ch/zerr"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS inputs (
	source      TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	url         TEXT NOT NULL,
	attrs       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inputs_fingerprint ON inputs (fingerprint);

CREATE TABLE IF NOT EXISTS packages (
	fingerprint TEXT NOT NULL,
	subtree     TEXT NOT NULL,
	system      TEXT NOT NULL,
	relpath     TEXT NOT NULL,
	attrname    TEXT NOT NULL,
	pname       TEXT NOT NULL,
	version     TEXT,
	description TEXT,
	license     TEXT,
	broken      INTEGER,
	unfree      INTEGER
);
CREATE INDEX IF NOT EXISTS idx_packages_lookup ON packages (fingerprint, system, subtree);
`

// Index implements ports.PackageIndex over a sqlite catalog file.
type Index struct {
	db    *sql.DB
	cache *gocache.Cache
}

// Open opens the catalog database at path, creating the schema if the
// file is new.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrIndexOpenFailed, err.Error()),
			"file", path,
		)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zerr.With(
			zerr.Wrap(domain.ErrIndexOpenFailed, err.Error()),
			"file", path,
		)
	}
	return &Index{
		db:    db,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}, nil
}

// Close closes the catalog database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Lock pins a source reference to the revision recorded in the catalog.
func (i *Index) Lock(ctx context.Context, ref domain.SourceRef) (*domain.LockedInput, error) {
	source := ref.String()

	var url, rawAttrs string
	var fingerprint domain.Fingerprint
	err := i.db.QueryRowContext(ctx,
		`SELECT url, attrs, fingerprint FROM inputs WHERE source = ?`, source,
	).Scan(&url, &rawAttrs, &fingerprint)
	if err == sql.ErrNoRows {
		return nil, zerr.With(zerr.Wrap(domain.ErrInputNotIndexed, source), "input", source)
	}
	if err != nil {
		return nil, zerr.Wrap(domain.ErrIndexQueryFailed, err.Error())
	}

	var attrs map[string]string
	if err := json.Unmarshal([]byte(rawAttrs), &attrs); err != nil {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrIndexQueryFailed, err.Error()),
			"input", source,
		)
	}
	if fingerprint == "" {
		fingerprint = domain.FingerprintOf(url, attrs)
	}
	return &domain.LockedInput{
		Fingerprint: fingerprint,
		URL:         url,
		Attrs:       attrs,
	}, nil
}

// Open returns a reader over the catalog of a pinned input.
func (i *Index) Open(ctx context.Context, input *domain.LockedInput) (ports.IndexReader, error) {
	var one int
	err := i.db.QueryRowContext(ctx,
		`SELECT 1 FROM inputs WHERE fingerprint = ?`, input.Fingerprint,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, zerr.With(zerr.Wrap(domain.ErrInputNotIndexed, input.URL), "input", input.URL)
	}
	if err != nil {
		return nil, zerr.Wrap(domain.ErrIndexQueryFailed, err.Error())
	}
	return &reader{index: i, fingerprint: input.Fingerprint}, nil
}

// AddInput records a pinned input in the catalog. The fingerprint is
// derived from the pinned url and attrs.
func (i *Index) AddInput(ctx context.Context, source string, url string, attrs map[string]string) (*domain.LockedInput, error) {
	rawAttrs, err := json.Marshal(attrs)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrIndexQueryFailed, err.Error())
	}
	fingerprint := domain.FingerprintOf(url, attrs)
	_, err = i.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO inputs (source, fingerprint, url, attrs) VALUES (?, ?, ?, ?)`,
		source, fingerprint, url, string(rawAttrs),
	)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrIndexQueryFailed, err.Error())
	}
	return &domain.LockedInput{Fingerprint: fingerprint, URL: url, Attrs: attrs}, nil
}

// AddPackage records one package row for a pinned input. The row's
// AbsPath must carry the full category.system.rest... form.
func (i *Index) AddPackage(ctx context.Context, fingerprint domain.Fingerprint, row domain.PkgRow) error {
	if len(row.AbsPath) < 3 {
		return zerr.With(zerr.Wrap(domain.ErrInvalidAbsPath, row.AbsPath.String()), "abspath", row.AbsPath.String())
	}
	relPath := row.AbsPath[2:]
	attrName := relPath[len(relPath)-1]
	_, err := i.db.ExecContext(ctx,
		`INSERT INTO packages
			(fingerprint, subtree, system, relpath, attrname, pname, version, description, license, broken, unfree)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fingerprint, row.AbsPath[0], row.AbsPath[1], relPath.String(), attrName,
		row.Pname, row.Version, row.Description, row.License, row.Broken, row.Unfree,
	)
	if err != nil {
		return zerr.Wrap(domain.ErrIndexQueryFailed, err.Error())
	}
	return nil
}
