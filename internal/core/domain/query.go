package domain

// PkgQuery describes a package search against a single input's index.
type PkgQuery struct {
	// Name matches pname or trailing attribute name exactly; "" matches any.
	Name string
	// Version requires an exact version match when set.
	Version *string
	// Semver requires the version to satisfy a range when set.
	Semver *string
	// RelPath requires an exact attribute path below category and system.
	RelPath AttrPath
	// Subtrees are the categories to search, in preference order.
	Subtrees []string
	// System is the target platform.
	System System
	// PreferPreReleases ranks pre-release versions above their release.
	PreferPreReleases bool
	// AllowBroken admits packages marked broken.
	AllowBroken bool
	// AllowUnfree admits packages with an unfree license.
	AllowUnfree bool
	// Licenses restricts results to these license ids when non-empty.
	Licenses []string
}

// QueryFromDescriptor builds the index query for a descriptor on one
// target system, applying the manifest-wide options.
func QueryFromDescriptor(desc *Descriptor, system System, opts *Options) PkgQuery {
	query := PkgQuery{
		Name:        desc.Name,
		Version:     desc.Version,
		Semver:      desc.Semver,
		RelPath:     desc.RelPath,
		System:      system,
		AllowBroken: opts.AllowBroken(),
		AllowUnfree: opts.AllowUnfree(),
		Licenses:    opts.Allow.Licenses,
	}
	if desc.Subtree != "" {
		query.Subtrees = []string{desc.Subtree}
	} else {
		query.Subtrees = Categories
	}
	if opts.Semver.PreferPreReleases {
		query.PreferPreReleases = true
	} else if desc.Semver != nil && PrefersPreReleases(*desc.Semver) {
		query.PreferPreReleases = true
	}
	return query
}

// PkgRow is one candidate package returned by an index search. AbsPath
// is the full attribute path including category and system.
type PkgRow struct {
	AbsPath     AttrPath
	Pname       string
	Version     string
	Description *string
	License     *string
	Broken      *bool
	Unfree      *bool
}

// Info projects the row's metadata into the locked package form.
func (r *PkgRow) Info() PackageInfo {
	return PackageInfo{
		Pname:       r.Pname,
		Version:     r.Version,
		Description: r.Description,
		License:     r.License,
		Broken:      r.Broken,
		Unfree:      r.Unfree,
	}
}
