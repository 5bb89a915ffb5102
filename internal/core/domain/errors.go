package domain

import "go.trai.ch/zerr"

var (
	// ErrEmptyDescriptor is returned when a descriptor names nothing to install.
	ErrEmptyDescriptor = zerr.New("descriptor must set a name, path or abspath")

	// ErrEmptyInstallID is returned when a manifest install entry is keyed by the empty string.
	ErrEmptyInstallID = zerr.New("install entries must have a non-empty id")

	// ErrInvalidAbsPath is returned when an absolute attribute path has fewer than three parts.
	ErrInvalidAbsPath = zerr.New("abspath must have at least three parts")

	// ErrUnknownCategory is returned when an absolute path does not start with a known category.
	ErrUnknownCategory = zerr.New("abspath must have a category as its first element")

	// ErrGlobNotAllowed is returned when a glob appears anywhere but the system position.
	ErrGlobNotAllowed = zerr.New("a glob may only appear as the system element of an abspath")

	// ErrPathConflict is returned when a relative path disagrees with the abspath.
	ErrPathConflict = zerr.New("path conflicts with abspath")

	// ErrSystemsConflict is returned when a systems list disagrees with the abspath's fixed system.
	ErrSystemsConflict = zerr.New("systems list conflicts with abspath system specification")

	// ErrInvalidPriority is returned when a descriptor priority is out of range.
	ErrInvalidPriority = zerr.New("priority must be a positive integer")

	// ErrInvalidSourceRef is returned when a package source reference cannot be parsed.
	ErrInvalidSourceRef = zerr.New("invalid package source reference")

	// ErrManifestReadFailed is returned when the manifest file cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read manifest file")

	// ErrManifestParseFailed is returned when the manifest file cannot be parsed.
	ErrManifestParseFailed = zerr.New("failed to parse manifest file")

	// ErrUnknownManifestField is returned when the manifest contains an unrecognized field.
	ErrUnknownManifestField = zerr.New("unrecognized manifest field")

	// ErrUnknownInput is returned when an input name is not declared in the manifest registry.
	ErrUnknownInput = zerr.New("input does not exist in manifest")

	// ErrNoInputs is returned when resolution is attempted with an empty input registry.
	ErrNoInputs = zerr.New("no inputs found to search for packages")

	// ErrResolutionFailed is returned when one or more groups cannot be resolved in any input.
	ErrResolutionFailed = zerr.New("failed to resolve some packages")

	// ErrInvalidLockfile is returned when a lockfile fails structural validation.
	ErrInvalidLockfile = zerr.New("invalid lockfile")

	// ErrUnsupportedLockfileVersion is returned when the lockfile format version is not supported.
	ErrUnsupportedLockfileVersion = zerr.New("unsupported lockfile version")

	// ErrUnknownLockfileField is returned when the lockfile contains an unrecognized field.
	ErrUnknownLockfileField = zerr.New("unrecognized lockfile field")

	// ErrIndirectInput is returned when a registry input is an unresolved indirect reference.
	ErrIndirectInput = zerr.New("registry input may not be indirect")

	// ErrMultipleGroupInputs is returned when a group's locked members span multiple inputs.
	ErrMultipleGroupInputs = zerr.New("group uses multiple inputs")

	// ErrLockfileReadFailed is returned when the lockfile cannot be read from disk.
	ErrLockfileReadFailed = zerr.New("failed to read lockfile")

	// ErrLockfileWriteFailed is returned when the lockfile cannot be written to disk.
	ErrLockfileWriteFailed = zerr.New("failed to write lockfile")

	// ErrIndexOpenFailed is returned when a package index cannot be opened.
	ErrIndexOpenFailed = zerr.New("failed to open package index")

	// ErrIndexQueryFailed is returned when a package index query fails.
	ErrIndexQueryFailed = zerr.New("package index query failed")

	// ErrInputNotIndexed is returned when an input has no entry in the package index.
	ErrInputNotIndexed = zerr.New("input not found in package index")

	// ErrPackageBroken is returned when a locked package is marked broken and broken
	// packages are not allowed by the manifest options.
	ErrPackageBroken = zerr.New("package is marked as broken")

	// ErrUpgradeTarget is returned when an upgrade target is neither a group nor an install id.
	ErrUpgradeTarget = zerr.New("not a group or key for a package")

	// ErrUpgradeAmbiguous is returned when an install id is upgraded inside a multi-member group.
	ErrUpgradeAmbiguous = zerr.New("package is in a group with multiple packages, upgrade the group instead")
)
