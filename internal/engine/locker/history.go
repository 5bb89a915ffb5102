package locker

import "github.com/pindown/pindown/internal/core/domain"

// History helpers inspect the old lockfile to decide which groups carry
// forward unchanged and which input a regrouped request used before.

// oldState normalizes the old lockfile's manifest snapshot once.
func (e *Environment) oldState() (*domain.Manifest, []domain.Group) {
	if e.oldLock == nil {
		return nil, nil
	}
	if e.oldManifest == nil {
		manifest, err := domain.NewManifest(e.oldLock.Manifest)
		if err != nil {
			// A snapshot that no longer normalizes cannot seed anything.
			return nil, nil
		}
		e.oldManifest = &manifest
		e.oldGroups = manifest.Groups()
	}
	return e.oldManifest, e.oldGroups
}

// groupIsLocked reports whether a group's old resolution is still valid
// for the target system: no member is selected for upgrade, every member
// requests the same package as before, membership of the target system is
// unchanged, the input the group resolved to is still pinned in the
// registry, and every non-skipped member has an entry in the old
// packages, a null entry counting as resolved-to-absent.
func (e *Environment) groupIsLocked(group *domain.Group, system domain.System) bool {
	oldManifest, _ := e.oldState()
	if oldManifest == nil {
		return false
	}
	oldPackages, ok := e.oldLock.Packages[system]
	if !ok {
		return false
	}
	if input := e.groupInput(group, system); input != nil && !e.registryHas(input.Fingerprint) {
		return false
	}

	for _, member := range group.Members {
		if e.upgrades.Targets(member.ID) {
			return false
		}
		oldDesc := oldManifest.Descriptor(member.ID)
		if oldDesc == nil || !member.Descriptor.Unchanged(*oldDesc) {
			return false
		}
		skipped := member.Descriptor.SystemSkipped(system)
		if skipped != oldDesc.SystemSkipped(system) {
			return false
		}
		if skipped {
			continue
		}
		if _, resolved := oldPackages[member.ID]; !resolved {
			return false
		}
	}
	return true
}

// groupInput returns the pinned input the group's packages resolved to
// in the old lockfile for the target system. Each member is checked on
// its own: one whose package request is unchanged and whose group also
// matches decides immediately, while a member that merely moved groups
// supplies a weaker fallback. Adding or removing members therefore never
// discards the pin the surviving members already resolved against.
func (e *Environment) groupInput(group *domain.Group, system domain.System) *domain.LockedInput {
	oldManifest, _ := e.oldState()
	if oldManifest == nil {
		return nil
	}
	oldPackages, ok := e.oldLock.Packages[system]
	if !ok {
		return nil
	}

	var regrouped *domain.LockedInput
	for _, member := range group.Members {
		locked := oldPackages[member.ID]
		if locked == nil {
			continue
		}
		oldDesc := oldManifest.Descriptor(member.ID)
		if oldDesc == nil || !member.Descriptor.SamePackage(*oldDesc) {
			continue
		}
		input := locked.Input
		if member.Descriptor.Group == oldDesc.Group {
			return &input
		}
		if regrouped == nil {
			regrouped = &input
		}
	}
	return regrouped
}
