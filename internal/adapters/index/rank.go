package index

import (
	"sort"

	"github.com/pindown/pindown/internal/core/domain"
)

// rankRows orders candidates best-first: preferred category, exact pname
// matches over attribute-name matches, higher version, shallower
// attribute path, then lexicographic path order as the final tiebreak.
func rankRows(rows []domain.PkgRow, query *domain.PkgQuery) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]

		if ra, rb := subtreeRank(a, query.Subtrees), subtreeRank(b, query.Subtrees); ra != rb {
			return ra < rb
		}
		if query.Name != "" {
			exactA, exactB := a.Pname == query.Name, b.Pname == query.Name
			if exactA != exactB {
				return exactA
			}
		}
		if cmp := domain.CompareVersions(a.Version, b.Version, query.PreferPreReleases); cmp != 0 {
			return cmp > 0
		}
		if len(a.AbsPath) != len(b.AbsPath) {
			return len(a.AbsPath) < len(b.AbsPath)
		}
		return a.AbsPath.String() < b.AbsPath.String()
	})
}

// subtreeRank returns the index of the row's category in the preference
// order; unknown categories sort last.
func subtreeRank(row *domain.PkgRow, subtrees []string) int {
	if len(row.AbsPath) == 0 {
		return len(subtrees)
	}
	for i, subtree := range subtrees {
		if row.AbsPath[0] == subtree {
			return i
		}
	}
	return len(subtrees)
}
