// Package domain holds the core types of the manifest resolution and
// lockfile engine: descriptors, groups, the input registry and the
// lockfile model.
package domain

// System identifies a target platform, e.g. "x86_64-linux".
type System string

// InstallID identifies a single manifest entry.
type InstallID string

// GroupName identifies a resolution group.
type GroupName string

// DefaultGroup is the reserved bucket for descriptors without an explicit
// group. The name is reserved but not forbidden; a user group with this
// name merges into the default bucket.
const DefaultGroup GroupName = "toplevel"

// DefaultPriority is assigned to descriptors that do not set one.
const DefaultPriority = 5

// Categories are the known top-level classifications under which packages
// are reached within an input, in declared preference order.
var Categories = []string{"packages", "legacyPackages"}

// KnownCategory reports whether name is a recognized category.
func KnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// DefaultSystems are locked when the manifest does not configure a
// systems list.
var DefaultSystems = []System{
	"aarch64-darwin",
	"aarch64-linux",
	"x86_64-darwin",
	"x86_64-linux",
}
