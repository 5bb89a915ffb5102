// Package locker implements incremental lockfile creation: deciding which
// resolution groups can be carried forward from an existing lockfile and
// resolving the rest against the registry inputs.
package locker

import (
	"context"
	"strconv"

	"github.com/pindown/pindown/internal/core/domain"
	"github.com/pindown/pindown/internal/core/ports"
	"go.trai.ch/zerr"
)

// Upgrades selects which locked packages are discarded before relocking.
// The zero value upgrades nothing.
type Upgrades struct {
	// All discards every locked group.
	All bool
	// IDs discards the groups containing these install ids.
	IDs []domain.InstallID
}

// Targets reports whether id is selected for upgrade.
func (u Upgrades) Targets(id domain.InstallID) bool {
	if u.All {
		return true
	}
	for _, target := range u.IDs {
		if target == id {
			return true
		}
	}
	return false
}

// Environment holds the state of a single lock run.
type Environment struct {
	manifest *domain.Manifest
	oldLock  *domain.Lockfile
	upgrades Upgrades
	pins     map[string]*domain.LockedInput

	index  ports.PackageIndex
	logger ports.Logger
	tracer ports.Tracer

	registry    *domain.Registry
	oldManifest *domain.Manifest
	oldGroups   []domain.Group
	readers     map[domain.Fingerprint]ports.IndexReader
}

// Option configures an Environment.
type Option func(*Environment)

// WithOldLockfile supplies the previous lockfile for incremental locking.
func WithOldLockfile(lockfile *domain.Lockfile) Option {
	return func(e *Environment) { e.oldLock = lockfile }
}

// WithUpgrades marks packages whose locked state is discarded.
func WithUpgrades(upgrades Upgrades) Option {
	return func(e *Environment) { e.upgrades = upgrades }
}

// WithPins forces fresh pinned revisions for the named inputs, replacing
// any pins carried over from the old lockfile.
func WithPins(pins map[string]*domain.LockedInput) Option {
	return func(e *Environment) { e.pins = pins }
}

// New creates a lock run for manifest.
func New(
	manifest *domain.Manifest,
	index ports.PackageIndex,
	logger ports.Logger,
	tracer ports.Tracer,
	opts ...Option,
) *Environment {
	env := &Environment{
		manifest: manifest,
		index:    index,
		logger:   logger,
		tracer:   tracer,
		readers:  make(map[domain.Fingerprint]ports.IndexReader),
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Close releases all index readers opened during the run.
func (e *Environment) Close() error {
	var firstErr error
	for fingerprint, reader := range e.readers {
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.readers, fingerprint)
	}
	return firstErr
}

// CreateLockfile resolves the manifest into a fresh lockfile, reusing
// locked groups from the old lockfile wherever the request is unchanged.
func (e *Environment) CreateLockfile(ctx context.Context) (*domain.Lockfile, error) {
	ctx, span := e.tracer.Start(ctx, "locker.create")
	defer span.End()

	registry, err := e.combinedRegistry(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	lockfile := &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Manifest: e.manifest.Raw,
		Registry: *registry,
		Packages: make(map[domain.System]domain.SystemPackages),
	}

	systems := e.manifest.Systems()
	span.SetAttribute("systems", len(systems))
	for _, system := range systems {
		packages, err := e.lockSystem(ctx, system)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		lockfile.Packages[system] = packages
	}

	lockfile.RemoveUnusedInputs()

	if err := lockfile.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	warnings, err := lockfile.CheckPackages()
	for _, warning := range warnings {
		e.logger.Warn(warning)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return lockfile, nil
}

// lockSystem resolves every group for one target system. Failures are
// collected across groups so a single run reports them all.
func (e *Environment) lockSystem(ctx context.Context, system domain.System) (domain.SystemPackages, error) {
	ctx, span := e.tracer.Start(ctx, "locker.lockSystem")
	defer span.End()
	span.SetAttribute("system", string(system))

	packages := make(domain.SystemPackages)
	var failures []groupFailure

	for _, group := range e.manifest.Groups() {
		if e.groupIsLocked(&group, system) {
			e.copyLockedGroup(&group, system, packages)
			continue
		}
		resolved, failure, err := e.tryResolveGroup(ctx, &group, system)
		if err != nil {
			return nil, err
		}
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		for id, locked := range resolved {
			packages[id] = locked
		}
	}

	if len(failures) > 0 {
		err := resolutionError(failures)
		span.RecordError(err)
		return nil, err
	}
	return packages, nil
}

// copyLockedGroup carries a locked group's packages forward, refreshing
// the priority from the current descriptor.
func (e *Environment) copyLockedGroup(group *domain.Group, system domain.System, packages domain.SystemPackages) {
	oldPackages := e.oldLock.Packages[system]
	for _, member := range group.Members {
		old := oldPackages[member.ID]
		if old == nil {
			packages[member.ID] = nil
			continue
		}
		locked := *old
		locked.Priority = member.Descriptor.Priority
		packages[member.ID] = &locked
	}
}

// resolutionError aggregates group failures into a single error. A run
// that recorded no attempts at all had no inputs to search.
func resolutionError(failures []groupFailure) error {
	attempts := 0
	detail := ""
	for _, failure := range failures {
		for _, attempt := range failure.Attempts {
			attempts++
			if detail != "" {
				detail += "\n"
			}
			detail += "could not resolve '" + string(attempt.ID) +
				"' in input '" + attempt.URL +
				"' for system '" + string(failure.System) + "'"
		}
	}
	if attempts == 0 {
		return domain.ErrNoInputs
	}
	err := zerr.Wrap(domain.ErrResolutionFailed, detail)
	return zerr.With(err, "failed_attempts", strconv.Itoa(attempts))
}
