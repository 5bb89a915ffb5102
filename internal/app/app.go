// Package app implements the application layer for pindown.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/pindown/pindown/internal/core/domain"
	"github.com/pindown/pindown/internal/core/ports"
	"github.com/pindown/pindown/internal/engine/locker"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	manifests ports.ManifestLoader
	lockfiles ports.LockfileStore
	index     ports.PackageIndex
	logger    ports.Logger
	tracer    ports.Tracer
}

// New creates a new App instance.
func New(
	manifests ports.ManifestLoader,
	lockfiles ports.LockfileStore,
	index ports.PackageIndex,
	log ports.Logger,
	tracer ports.Tracer,
) *App {
	return &App{
		manifests: manifests,
		lockfiles: lockfiles,
		index:     index,
		logger:    log,
		tracer:    tracer,
	}
}

// Paths locates the manifest and lockfile for a run.
type Paths struct {
	Manifest string
	Lockfile string
}

// Lock resolves the manifest into a lockfile, reusing the existing
// lockfile where requests are unchanged, and writes the result. The
// returned changes describe the difference to the previous lockfile.
func (a *App) Lock(ctx context.Context, paths Paths) (*domain.Lockfile, []domain.Change, error) {
	manifest, oldLock, err := a.load(paths)
	if err != nil {
		return nil, nil, err
	}
	return a.relock(ctx, paths, manifest, oldLock)
}

// Update re-pins registry inputs to their latest indexed revision and
// relocks. With no names given every input is refreshed; unknown names
// are an error.
func (a *App) Update(ctx context.Context, paths Paths, names []string) (*domain.Lockfile, []domain.Change, error) {
	manifest, oldLock, err := a.load(paths)
	if err != nil {
		return nil, nil, err
	}

	registry := manifest.Raw.Registry
	if len(names) == 0 {
		names = registry.OrderedNames()
	}
	for _, name := range names {
		if _, ok := registry.Inputs[name]; !ok {
			return nil, nil, zerr.With(zerr.Wrap(domain.ErrUnknownInput, name), "input", name)
		}
	}

	// Pinning is independent per input, so refresh them concurrently.
	pins := make(map[string]*domain.LockedInput, len(names))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			pin, err := a.index.Lock(gctx, registry.Inputs[name].From)
			if err != nil {
				return zerr.With(err, "input", name)
			}
			mu.Lock()
			pins[name] = pin
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	for _, name := range names {
		a.logger.Info(fmt.Sprintf("pinned input '%s' to %s", name, pins[name].URL))
	}

	return a.relock(ctx, paths, manifest, oldLock, locker.WithPins(pins))
}

// Upgrade discards the locked state of the targeted packages and
// relocks. Targets name a group, or an install id that sits alone in its
// group; no targets upgrades everything.
func (a *App) Upgrade(ctx context.Context, paths Paths, targets []string) (*domain.Lockfile, []domain.Change, error) {
	manifest, oldLock, err := a.load(paths)
	if err != nil {
		return nil, nil, err
	}

	upgrades, err := resolveUpgrades(manifest, targets)
	if err != nil {
		return nil, nil, err
	}
	return a.relock(ctx, paths, manifest, oldLock, locker.WithUpgrades(upgrades))
}

// Diff reports the package changes between two lockfiles on disk.
func (a *App) Diff(_ context.Context, beforePath, afterPath string) ([]domain.Change, error) {
	before, err := a.readLockfile(beforePath)
	if err != nil {
		return nil, err
	}
	after, err := a.readLockfile(afterPath)
	if err != nil {
		return nil, err
	}
	return domain.Diff(before, after), nil
}

func (a *App) readLockfile(path string) (*domain.Lockfile, error) {
	lockfile, err := a.lockfiles.Read(path)
	if err != nil {
		return nil, err
	}
	if lockfile == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrLockfileReadFailed, path), "file", path)
	}
	return lockfile, nil
}

// load reads the manifest and, if present, the previous lockfile.
func (a *App) load(paths Paths) (*domain.Manifest, *domain.Lockfile, error) {
	manifest, err := a.manifests.Load(paths.Manifest)
	if err != nil {
		return nil, nil, err
	}
	oldLock, err := a.lockfiles.Read(paths.Lockfile)
	if err != nil {
		return nil, nil, err
	}
	return manifest, oldLock, nil
}

// relock runs the locker and persists the result.
func (a *App) relock(
	ctx context.Context,
	paths Paths,
	manifest *domain.Manifest,
	oldLock *domain.Lockfile,
	opts ...locker.Option,
) (*domain.Lockfile, []domain.Change, error) {
	if oldLock != nil {
		opts = append(opts, locker.WithOldLockfile(oldLock))
	}
	env := locker.New(manifest, a.index, a.logger, a.tracer, opts...)
	defer func() { _ = env.Close() }()

	lockfile, err := env.CreateLockfile(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := a.lockfiles.Write(paths.Lockfile, lockfile); err != nil {
		return nil, nil, err
	}

	previous := oldLock
	if previous == nil {
		previous = &domain.Lockfile{}
	}
	return lockfile, domain.Diff(previous, lockfile), nil
}

// resolveUpgrades maps upgrade targets onto install ids. A target is
// tried as a group name first; an install id only counts when it is the
// sole member of its group.
func resolveUpgrades(manifest *domain.Manifest, targets []string) (locker.Upgrades, error) {
	if len(targets) == 0 {
		return locker.Upgrades{All: true}, nil
	}

	groups := manifest.Groups()
	upgrades := locker.Upgrades{}

nextTarget:
	for _, target := range targets {
		for i := range groups {
			if groups[i].Name == domain.GroupName(target) {
				for _, member := range groups[i].Members {
					upgrades.IDs = append(upgrades.IDs, member.ID)
				}
				continue nextTarget
			}
		}
		for i := range groups {
			if !groups[i].Has(domain.InstallID(target)) {
				continue
			}
			if len(groups[i].Members) > 1 {
				err := zerr.With(zerr.Wrap(domain.ErrUpgradeAmbiguous, target), "install_id", target)
				return upgrades, zerr.With(err, "group", string(groups[i].Name))
			}
			upgrades.IDs = append(upgrades.IDs, domain.InstallID(target))
			continue nextTarget
		}
		return upgrades, zerr.With(zerr.Wrap(domain.ErrUpgradeTarget, target), "target", target)
	}
	return upgrades, nil
}
