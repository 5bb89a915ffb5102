package index

import (
	"context"
	"database/sql"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pindown/pindown/internal/core/domain"
	"go.trai.ch/zerr"
)

// reader implements ports.IndexReader for a single pinned input.
type reader struct {
	index       *Index
	fingerprint domain.Fingerprint
}

// Search returns the candidates matching query, best match first.
// Results are memoized per fingerprint and query so repeated group
// resolution attempts don't hit the database again.
func (r *reader) Search(ctx context.Context, query domain.PkgQuery) ([]domain.PkgRow, error) {
	key := cacheKey(r.fingerprint, &query)
	if cached, ok := r.index.cache.Get(key); ok {
		return cached.([]domain.PkgRow), nil
	}

	rows, err := r.search(ctx, &query)
	if err != nil {
		return nil, err
	}
	rankRows(rows, &query)

	r.index.cache.Set(key, rows, gocache.DefaultExpiration)
	return rows, nil
}

// Close releases the reader. The database connection belongs to the
// Index and stays open.
func (r *reader) Close() error { return nil }

// search runs the sql-side filters; range matching happens in Go below.
func (r *reader) search(ctx context.Context, query *domain.PkgQuery) ([]domain.PkgRow, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT subtree, system, relpath, pname, version, description, license, broken, unfree
		FROM packages WHERE fingerprint = ? AND system = ?`)
	args := []any{string(r.fingerprint), string(query.System)}

	if len(query.Subtrees) > 0 {
		sb.WriteString(` AND subtree IN (?` + strings.Repeat(",?", len(query.Subtrees)-1) + `)`)
		for _, subtree := range query.Subtrees {
			args = append(args, subtree)
		}
	}
	if query.Name != "" {
		sb.WriteString(` AND (pname = ? OR attrname = ?)`)
		args = append(args, query.Name, query.Name)
	}
	if query.RelPath != nil {
		sb.WriteString(` AND relpath = ?`)
		args = append(args, query.RelPath.String())
	}
	if query.Version != nil {
		sb.WriteString(` AND version = ?`)
		args = append(args, *query.Version)
	}
	if !query.AllowBroken {
		sb.WriteString(` AND (broken IS NULL OR broken = 0)`)
	}
	if !query.AllowUnfree {
		sb.WriteString(` AND (unfree IS NULL OR unfree = 0)`)
	}
	if len(query.Licenses) > 0 {
		sb.WriteString(` AND license IN (?` + strings.Repeat(",?", len(query.Licenses)-1) + `)`)
		for _, license := range query.Licenses {
			args = append(args, license)
		}
	}

	dbRows, err := r.index.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrIndexQueryFailed, err.Error())
	}
	defer func() { _ = dbRows.Close() }()

	var results []domain.PkgRow
	for dbRows.Next() {
		row, err := scanRow(dbRows)
		if err != nil {
			return nil, err
		}
		if query.Semver != nil && !domain.RangeSatisfies(*query.Semver, row.Version) {
			continue
		}
		results = append(results, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, zerr.Wrap(domain.ErrIndexQueryFailed, err.Error())
	}
	return results, nil
}

func scanRow(dbRows *sql.Rows) (domain.PkgRow, error) {
	var row domain.PkgRow
	var subtree, system, relPath string
	var version sql.NullString
	err := dbRows.Scan(
		&subtree, &system, &relPath,
		&row.Pname, &version, &row.Description, &row.License, &row.Broken, &row.Unfree,
	)
	if err != nil {
		return row, zerr.Wrap(domain.ErrIndexQueryFailed, err.Error())
	}
	row.Version = version.String
	row.AbsPath = append(domain.AttrPath{subtree, system}, domain.SplitAttrPath(relPath)...)
	return row, nil
}

// cacheKey builds a stable memoization key for one query.
func cacheKey(fingerprint domain.Fingerprint, query *domain.PkgQuery) string {
	parts := []string{
		string(fingerprint),
		query.Name,
		deref(query.Version),
		deref(query.Semver),
		query.RelPath.String(),
		strings.Join(query.Subtrees, ","),
		string(query.System),
		flag(query.PreferPreReleases), flag(query.AllowBroken), flag(query.AllowUnfree),
		strings.Join(query.Licenses, ","),
	}
	return strings.Join(parts, "\x00")
}

func deref(s *string) string {
	if s == nil {
		return "\x01"
	}
	return *s
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
