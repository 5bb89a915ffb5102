package domain

import (
	"encoding/json"
	"sort"
	"strconv"

	"go.trai.ch/zerr"
)

// LockfileVersion is the only lockfile format version this engine
// reads and writes.
const LockfileVersion = 0

// LockedInput is a registry input pinned to a concrete revision.
type LockedInput struct {
	Fingerprint Fingerprint       `json:"fingerprint"`
	URL         string            `json:"url"`
	Attrs       map[string]string `json:"attrs"`
}

// UnmarshalJSON rejects unknown locked input fields.
func (li *LockedInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		var err error
		switch key {
		case "fingerprint":
			err = json.Unmarshal(value, &li.Fingerprint)
		case "url":
			err = json.Unmarshal(value, &li.URL)
		case "attrs":
			err = json.Unmarshal(value, &li.Attrs)
		default:
			return zerr.With(zerr.Wrap(ErrUnknownLockfileField, "input."+key), "field", "input."+key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// PackageInfo is the metadata recorded for a locked package. Internal
// index bookkeeping never appears here.
type PackageInfo struct {
	Pname       string  `json:"pname"`
	Version     string  `json:"version"`
	Description *string `json:"description"`
	License     *string `json:"license"`
	Broken      *bool   `json:"broken"`
	Unfree      *bool   `json:"unfree"`
}

// LockedPackage is one resolved install entry for a single system.
type LockedPackage struct {
	Input    LockedInput `json:"input"`
	AttrPath AttrPath    `json:"attr-path"`
	Priority int         `json:"priority"`
	Info     PackageInfo `json:"info"`
}

// UnmarshalJSON rejects unknown locked package fields.
func (lp *LockedPackage) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		var err error
		switch key {
		case "input":
			err = json.Unmarshal(value, &lp.Input)
		case "attr-path":
			err = json.Unmarshal(value, &lp.AttrPath)
		case "priority":
			err = json.Unmarshal(value, &lp.Priority)
		case "info":
			err = json.Unmarshal(value, &lp.Info)
		default:
			return zerr.With(zerr.Wrap(ErrUnknownLockfileField, "package."+key), "field", "package."+key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Equal reports full structural equality.
func (lp *LockedPackage) Equal(other *LockedPackage) bool {
	if lp == nil || other == nil {
		return lp == other
	}
	return lp.Input.Fingerprint == other.Input.Fingerprint &&
		lp.Input.URL == other.Input.URL &&
		lp.AttrPath.Equal(other.AttrPath) &&
		lp.Priority == other.Priority &&
		lp.Info == other.Info
}

// SystemPackages maps install ids to their locked packages for one
// system. A present entry with a null package records an optional
// descriptor that resolved to nothing.
type SystemPackages map[InstallID]*LockedPackage

// Lockfile is the on-disk resolution result: a snapshot of the manifest
// it was produced from, the pinned input registry and the per-system
// locked packages.
type Lockfile struct {
	Version  int                       `json:"lockfile-version"`
	Manifest RawManifest               `json:"manifest"`
	Registry Registry                  `json:"registry"`
	Packages map[System]SystemPackages `json:"packages"`
}

// UnmarshalJSON rejects unknown top-level lockfile fields.
func (lf *Lockfile) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		var err error
		switch key {
		case "lockfile-version":
			err = json.Unmarshal(value, &lf.Version)
		case "manifest":
			err = json.Unmarshal(value, &lf.Manifest)
		case "registry":
			err = json.Unmarshal(value, &lf.Registry)
		case "packages":
			err = json.Unmarshal(value, &lf.Packages)
		default:
			return zerr.With(zerr.Wrap(ErrUnknownLockfileField, key), "field", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the structural invariants of a lockfile: a supported
// format version, a registry free of indirect references, and for every
// group all resolved members on a single system locked to the same input
// revision.
func (lf *Lockfile) Validate() error {
	if lf.Version != LockfileVersion {
		return zerr.With(zerr.Wrap(ErrUnsupportedLockfileVersion, strconv.Itoa(lf.Version)), "version", lf.Version)
	}

	for name, input := range lf.Registry.Inputs {
		if input.From.RefType() == "indirect" {
			return zerr.With(zerr.Wrap(ErrIndirectInput, name), "input", name)
		}
	}

	manifest, err := NewManifest(lf.Manifest)
	if err != nil {
		return zerr.Wrap(err, "lockfile carries an invalid manifest")
	}
	for _, group := range manifest.Groups() {
		if err := lf.checkGroup(&group); err != nil {
			return err
		}
	}
	return nil
}

// checkGroup verifies the single-input invariant for one group on every
// locked system.
func (lf *Lockfile) checkGroup(group *Group) error {
	for system, packages := range lf.Packages {
		var fingerprint Fingerprint
		for _, member := range group.Members {
			locked := packages[member.ID]
			if locked == nil {
				continue
			}
			if fingerprint == "" {
				fingerprint = locked.Input.Fingerprint
				continue
			}
			if locked.Input.Fingerprint != fingerprint {
				err := zerr.With(zerr.Wrap(ErrMultipleGroupInputs, string(group.Name)), "group", string(group.Name))
				err = zerr.With(err, "system", string(system))
				return zerr.With(err, "install_id", string(member.ID))
			}
		}
	}
	return nil
}

// RemoveUnusedInputs drops registry inputs that are neither declared in
// the manifest snapshot nor referenced by any locked package, and prunes
// the priority list accordingly.
func (lf *Lockfile) RemoveUnusedInputs() {
	used := make(map[Fingerprint]bool)
	for _, packages := range lf.Packages {
		for _, locked := range packages {
			if locked != nil {
				used[locked.Input.Fingerprint] = true
			}
		}
	}

	for name, input := range lf.Registry.Inputs {
		if _, declared := lf.Manifest.Registry.Inputs[name]; declared {
			continue
		}
		if input.Locked != nil && used[input.Locked.Fingerprint] {
			continue
		}
		delete(lf.Registry.Inputs, name)
	}

	kept := lf.Registry.Priority[:0]
	for _, name := range lf.Registry.Priority {
		if _, ok := lf.Registry.Inputs[name]; ok {
			kept = append(kept, name)
		}
	}
	lf.Registry.Priority = kept
}

// ChangeKind classifies a single lockfile diff entry.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeUpdated ChangeKind = "updated"
)

// Change is one per-package difference between two lockfiles.
type Change struct {
	System    System         `json:"system"`
	InstallID InstallID      `json:"install-id"`
	Kind      ChangeKind     `json:"kind"`
	Before    *LockedPackage `json:"before,omitempty"`
	After     *LockedPackage `json:"after,omitempty"`
}

// Diff compares the packages of two lockfiles and reports every added,
// removed or updated entry, ordered by system then install id.
func Diff(before, after *Lockfile) []Change {
	var changes []Change

	systems := make(map[System]bool)
	for system := range before.Packages {
		systems[system] = true
	}
	for system := range after.Packages {
		systems[system] = true
	}

	for system := range systems {
		oldPkgs := before.Packages[system]
		newPkgs := after.Packages[system]
		ids := make(map[InstallID]bool, len(oldPkgs)+len(newPkgs))
		for id := range oldPkgs {
			ids[id] = true
		}
		for id := range newPkgs {
			ids[id] = true
		}
		for id := range ids {
			oldPkg, hadOld := oldPkgs[id]
			newPkg, hasNew := newPkgs[id]
			switch {
			case !hadOld:
				changes = append(changes, Change{system, id, ChangeAdded, nil, newPkg})
			case !hasNew:
				changes = append(changes, Change{system, id, ChangeRemoved, oldPkg, nil})
			case !oldPkg.Equal(newPkg):
				changes = append(changes, Change{system, id, ChangeUpdated, oldPkg, newPkg})
			}
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].System != changes[j].System {
			return changes[i].System < changes[j].System
		}
		return changes[i].InstallID < changes[j].InstallID
	})
	return changes
}

// CheckPackages enforces the manifest's allow options against the locked
// packages. Disallowed unfree packages produce warnings; disallowed
// broken packages are an error.
func (lf *Lockfile) CheckPackages() ([]string, error) {
	opts := &lf.Manifest.Options
	var warnings []string
	for _, system := range sortedSystems(lf.Packages) {
		packages := lf.Packages[system]
		for _, id := range sortedInstallIDs(packages) {
			locked := packages[id]
			if locked == nil {
				continue
			}
			info := locked.Info
			if !opts.AllowUnfree() && info.Unfree != nil && *info.Unfree {
				warnings = append(warnings,
					"package '"+string(id)+"' has an unfree license, allowed by default")
			}
			if !opts.AllowBroken() && info.Broken != nil && *info.Broken {
				err := zerr.With(zerr.Wrap(ErrPackageBroken, string(id)), "install_id", string(id))
				return warnings, zerr.With(err, "system", string(system))
			}
		}
	}
	return warnings, nil
}

func sortedSystems(packages map[System]SystemPackages) []System {
	systems := make([]System, 0, len(packages))
	for system := range packages {
		systems = append(systems, system)
	}
	sort.Slice(systems, func(i, j int) bool { return systems[i] < systems[j] })
	return systems
}

func sortedInstallIDs(packages SystemPackages) []InstallID {
	ids := make([]InstallID, 0, len(packages))
	for id := range packages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
