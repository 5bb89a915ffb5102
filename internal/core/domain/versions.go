package domain

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version classification distinguishes exact version matchers from semver
// ranges. The string "4.2.0" is not a range, but "4.2" is; an explicit
// match on "4.2" requires "=4.2".

// dateRE matches '-' separated date versions, e.g. "2023-05-31" or
// "5-1-23", with an optional trailing tag.
var dateRE = regexp.MustCompile(
	`^([12][0-9][0-9][0-9]-[0-1]?[0-9]-[0-3]?[0-9]|` + /* Y-M-D */
		`[0-1]?[0-9]-[0-3]?[0-9]-[12][0-9][0-9][0-9])` + /* M-D-Y */
		`(-[-[:alnum:]_+.]+)?$`)

// rangeGlobRE matches the special tokens that denote the universal range.
var rangeGlobRE = regexp.MustCompile(`^\s*(\*|any|latest)?\s*$`)

// preferPreRE matches "~<VERSION>-<TAG>" ranges, which opt in to
// pre-release candidates.
var preferPreRE = regexp.MustCompile(`^~[^ ]+-.*$`)

// IsSemver reports whether version is a full semantic version,
// e.g. "4.2.0-pre".
func IsSemver(version string) bool {
	_, err := semver.StrictNewVersion(version)
	return err == nil
}

// IsDate reports whether version is a '-' separated date string.
func IsDate(version string) bool {
	return dateRE.MatchString(version)
}

// IsSemverRange reports whether s parses under the semver range grammar.
// The empty string and a few glob tokens are valid ranges.
func IsSemverRange(s string) bool {
	if rangeGlobRE.MatchString(s) {
		return true
	}
	if _, err := semver.NewConstraint(s); err == nil {
		return true
	}
	return strings.Contains(s, " - ")
}

// PrefersPreReleases reports whether a "~<VERSION>-<TAG>" range opts in
// to pre-release candidates.
func PrefersPreReleases(semverRange string) bool {
	return preferPreRE.MatchString(semverRange)
}

// RangeSatisfies reports whether version lies inside semverRange.
// Pre-release versions are admitted against their base release, matching
// an `--include-prerelease` style evaluation. Unparseable versions never
// satisfy a range; an unparseable range matches nothing.
func RangeSatisfies(semverRange, version string) bool {
	if rangeGlobRE.MatchString(semverRange) {
		return CoerceSemver(version) != nil
	}
	constraint, err := semver.NewConstraint(semverRange)
	if err != nil {
		return false
	}
	ver := CoerceSemver(version)
	if ver == nil {
		return false
	}
	if constraint.Check(ver) {
		return true
	}
	if ver.Prerelease() != "" {
		base, err := ver.SetPrerelease("")
		if err == nil && constraint.Check(&base) {
			return true
		}
	}
	return false
}

// CoerceSemver parses version leniently ("v1.2", "1.02.0-pre"), returning
// nil for strings that cannot be read as a semantic version. Dates are
// never coerced.
func CoerceSemver(version string) *semver.Version {
	if IsDate(version) {
		return nil
	}
	ver, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return nil
	}
	return ver
}

// CompareVersions orders two version strings for ranking: semantic
// versions by precedence, with pre-releases ranked below their release
// unless preferPre is set; non-semver strings fall back to a lexicographic
// comparison and sort below any semantic version.
func CompareVersions(a, b string, preferPre bool) int {
	va := CoerceSemver(a)
	vb := CoerceSemver(b)
	switch {
	case va == nil && vb == nil:
		return strings.Compare(a, b)
	case va == nil:
		return -1
	case vb == nil:
		return 1
	}
	if !preferPre {
		// A pre-release ranks below any full release.
		if (va.Prerelease() != "") != (vb.Prerelease() != "") {
			if va.Prerelease() != "" {
				return -1
			}
			return 1
		}
	}
	return va.Compare(vb)
}
