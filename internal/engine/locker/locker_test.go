package locker_test

import (
	"context"
	"testing"

	"github.com/pindown/pindown/internal/adapters/telemetry"
	"github.com/pindown/pindown/internal/core/domain"
	"github.com/pindown/pindown/internal/core/ports"
	"github.com/pindown/pindown/internal/core/ports/mocks"
	"github.com/pindown/pindown/internal/engine/locker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testURL         = "github:NixOS/nixpkgs/rev1"
	testFingerprint = domain.Fingerprint("00000000deadbeef")
)

func testManifest(t *testing.T, raw domain.RawManifest) *domain.Manifest {
	t.Helper()
	manifest, err := domain.NewManifest(raw)
	require.NoError(t, err)
	return &manifest
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// singleInputManifest declares one github input and the given installs,
// locking a single system to keep expectations small.
func singleInputManifest(t *testing.T, install map[domain.InstallID]domain.RawDescriptor) *domain.Manifest {
	t.Helper()
	from, err := domain.ParseSourceRef("github:NixOS/nixpkgs")
	require.NoError(t, err)
	return testManifest(t, domain.RawManifest{
		Install: install,
		Registry: domain.Registry{
			Inputs: map[string]domain.RegistryInput{"nixpkgs": {From: from}},
		},
		Options: domain.Options{Systems: []domain.System{"x86_64-linux"}},
	})
}

func testPin() *domain.LockedInput {
	return &domain.LockedInput{
		Fingerprint: testFingerprint,
		URL:         testURL,
		Attrs:       map[string]string{"rev": "rev1"},
	}
}

func row(pname, version string) domain.PkgRow {
	return domain.PkgRow{
		AbsPath: domain.AttrPath{"packages", "x86_64-linux", pname},
		Pname:   pname,
		Version: version,
	}
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	return log
}

func TestCreateLockfileFresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello")},
	})

	reader := mocks.NewMockIndexReader(ctrl)
	reader.EXPECT().Search(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, query domain.PkgQuery) ([]domain.PkgRow, error) {
			assert.Equal(t, "hello", query.Name)
			assert.Equal(t, domain.System("x86_64-linux"), query.System)
			return []domain.PkgRow{row("hello", "2.12.1")}, nil
		})
	reader.EXPECT().Close().Return(nil)

	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(testPin(), nil)
	index.EXPECT().Open(gomock.Any(), testPin()).Return(reader, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer())
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.Close())

	assert.Equal(t, domain.LockfileVersion, lockfile.Version)
	assert.Equal(t, manifest.Raw, lockfile.Manifest)
	require.NotNil(t, lockfile.Registry.Inputs["nixpkgs"].Locked)
	assert.Equal(t, testFingerprint, lockfile.Registry.Inputs["nixpkgs"].Locked.Fingerprint)

	locked := lockfile.Packages["x86_64-linux"]["hello"]
	require.NotNil(t, locked)
	assert.Equal(t, testURL, locked.Input.URL)
	assert.Equal(t, domain.AttrPath{"packages", "x86_64-linux", "hello"}, locked.AttrPath)
	assert.Equal(t, domain.DefaultPriority, locked.Priority)
	assert.Equal(t, "2.12.1", locked.Info.Version)

	require.NoError(t, lockfile.Validate())
}

func TestCreateLockfileReusesLockedGroups(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello")},
	})
	oldLock := freshLockfile(t, manifest, "2.12.1")

	// No Lock, Open or Search calls: the pin is carried over and the
	// group copies forward untouched.
	index := mocks.NewMockPackageIndex(ctrl)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
		locker.WithOldLockfile(oldLock))
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, oldLock.Packages, lockfile.Packages)
	assert.Empty(t, domain.Diff(oldLock, lockfile))
}

func TestCreateLockfileRefreshesPriority(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello")},
	})
	oldLock := freshLockfile(t, manifest, "2.12.1")

	// Same request with a new priority stays locked but gets the new
	// priority stamped on.
	bumped := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello"), Priority: intPtr(1)},
	})

	index := mocks.NewMockPackageIndex(ctrl)
	env := locker.New(bumped, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
		locker.WithOldLockfile(oldLock))
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)

	locked := lockfile.Packages["x86_64-linux"]["hello"]
	require.NotNil(t, locked)
	assert.Equal(t, 1, locked.Priority)
	assert.Equal(t, "2.12.1", locked.Info.Version)
}

func TestCreateLockfileUpgrade(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello")},
	})
	oldLock := freshLockfile(t, manifest, "2.12.1")

	reader := mocks.NewMockIndexReader(ctrl)
	reader.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.PkgRow{row("hello", "2.13.0")}, nil)
	reader.EXPECT().Close().Return(nil)

	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Open(gomock.Any(), gomock.Any()).Return(reader, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
		locker.WithOldLockfile(oldLock),
		locker.WithUpgrades(locker.Upgrades{IDs: []domain.InstallID{"hello"}}))
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.Close())

	assert.Equal(t, "2.13.0", lockfile.Packages["x86_64-linux"]["hello"].Info.Version)

	changes := domain.Diff(oldLock, lockfile)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeUpdated, changes[0].Kind)
}

func TestCreateLockfileOptional(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"maybe": {Name: strPtr("nonexistent"), Optional: boolPtr(true)},
	})

	reader := mocks.NewMockIndexReader(ctrl)
	reader.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, nil)
	reader.EXPECT().Close().Return(nil)

	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(testPin(), nil)
	index.EXPECT().Open(gomock.Any(), gomock.Any()).Return(reader, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer())
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.Close())

	pkg, present := lockfile.Packages["x86_64-linux"]["maybe"]
	assert.True(t, present, "optional misses lock to a null entry")
	assert.Nil(t, pkg)
}

func TestCreateLockfileResolutionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"missing": {Name: strPtr("nonexistent")},
	})

	reader := mocks.NewMockIndexReader(ctrl)
	reader.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, nil)
	reader.EXPECT().Close().Return(nil)

	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(testPin(), nil)
	index.EXPECT().Open(gomock.Any(), gomock.Any()).Return(reader, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer())
	_, err := env.CreateLockfile(context.Background())
	require.NoError(t, env.Close())
	assert.ErrorIs(t, err, domain.ErrResolutionFailed)
}

func TestCreateLockfileNoInputs(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := testManifest(t, domain.RawManifest{
		Install: map[domain.InstallID]domain.RawDescriptor{
			"hello": {Name: strPtr("hello")},
		},
		Options: domain.Options{Systems: []domain.System{"x86_64-linux"}},
	})

	index := mocks.NewMockPackageIndex(ctrl)
	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer())
	_, err := env.CreateLockfile(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoInputs)
}

func TestCreateLockfileSkipsExcludedSystems(t *testing.T) {
	ctrl := gomock.NewController(t)
	from, err := domain.ParseSourceRef("github:NixOS/nixpkgs")
	require.NoError(t, err)
	manifest := testManifest(t, domain.RawManifest{
		Install: map[domain.InstallID]domain.RawDescriptor{
			"linuxOnly": {Name: strPtr("hello"), Systems: []domain.System{"x86_64-linux"}},
		},
		Registry: domain.Registry{
			Inputs: map[string]domain.RegistryInput{"nixpkgs": {From: from}},
		},
		Options: domain.Options{Systems: []domain.System{"x86_64-linux", "aarch64-darwin"}},
	})

	reader := mocks.NewMockIndexReader(ctrl)
	reader.EXPECT().Search(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, query domain.PkgQuery) ([]domain.PkgRow, error) {
			assert.Equal(t, domain.System("x86_64-linux"), query.System)
			return []domain.PkgRow{row("hello", "2.12.1")}, nil
		})
	reader.EXPECT().Close().Return(nil)

	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(testPin(), nil)
	index.EXPECT().Open(gomock.Any(), gomock.Any()).Return(reader, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer())
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.Close())

	require.NotNil(t, lockfile.Packages["x86_64-linux"]["linuxOnly"])
	pkg, present := lockfile.Packages["aarch64-darwin"]["linuxOnly"]
	assert.True(t, present)
	assert.Nil(t, pkg)
}

func TestCreateLockfileFallbackInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	primaryRef, err := domain.ParseSourceRef("github:primary/pkgs")
	require.NoError(t, err)
	fallbackRef, err := domain.ParseSourceRef("github:fallback/pkgs")
	require.NoError(t, err)

	manifest := testManifest(t, domain.RawManifest{
		Install: map[domain.InstallID]domain.RawDescriptor{
			"hello": {Name: strPtr("hello")},
		},
		Registry: domain.Registry{
			Inputs: map[string]domain.RegistryInput{
				"primary":  {From: primaryRef},
				"fallback": {From: fallbackRef},
			},
			Priority: []string{"primary", "fallback"},
		},
		Options: domain.Options{Systems: []domain.System{"x86_64-linux"}},
	})

	primaryPin := &domain.LockedInput{Fingerprint: "1111111111111111", URL: "github:primary/pkgs/rev"}
	fallbackPin := &domain.LockedInput{Fingerprint: "2222222222222222", URL: "github:fallback/pkgs/rev"}

	empty := mocks.NewMockIndexReader(ctrl)
	empty.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, nil)
	empty.EXPECT().Close().Return(nil)

	full := mocks.NewMockIndexReader(ctrl)
	full.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.PkgRow{row("hello", "1.0.0")}, nil)
	full.EXPECT().Close().Return(nil)

	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Lock(gomock.Any(), primaryRef).Return(primaryPin, nil)
	index.EXPECT().Lock(gomock.Any(), fallbackRef).Return(fallbackPin, nil)
	index.EXPECT().Open(gomock.Any(), primaryPin).Return(empty, nil)
	index.EXPECT().Open(gomock.Any(), fallbackPin).Return(full, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer())
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.Close())

	locked := lockfile.Packages["x86_64-linux"]["hello"]
	require.NotNil(t, locked)
	assert.Equal(t, fallbackPin.Fingerprint, locked.Input.Fingerprint)
}

func TestCreateLockfileKeepsPinWhenGroupGrows(t *testing.T) {
	ctrl := gomock.NewController(t)

	oldManifest := twoInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello")},
	})
	manifest := twoInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello")},
		"jq":    {Name: strPtr("jq")},
	})

	primaryPin := &domain.LockedInput{Fingerprint: "1111111111111111", URL: "github:primary/pkgs/rev"}
	secondaryPin := &domain.LockedInput{Fingerprint: "2222222222222222", URL: "github:secondary/pkgs/rev"}

	oldLock := &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Manifest: oldManifest.Raw,
		Registry: pinnedRegistry(oldManifest, map[string]*domain.LockedInput{
			"primary":   primaryPin,
			"secondary": secondaryPin,
		}),
		Packages: map[domain.System]domain.SystemPackages{
			"x86_64-linux": {
				"hello": {
					Input:    *secondaryPin,
					AttrPath: domain.AttrPath{"packages", "x86_64-linux", "hello"},
					Priority: domain.DefaultPriority,
					Info:     domain.PackageInfo{Pname: "hello", Version: "1.0.0"},
				},
			},
		},
	}

	reader := mocks.NewMockIndexReader(ctrl)
	reader.EXPECT().Search(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, query domain.PkgQuery) ([]domain.PkgRow, error) {
			return []domain.PkgRow{row(query.Name, "1.0.0")}, nil
		}).Times(2)
	reader.EXPECT().Close().Return(nil)

	// Only the input hello already resolved against is searched, even
	// though primary outranks it.
	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Open(gomock.Any(), secondaryPin).Return(reader, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
		locker.WithOldLockfile(oldLock))
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.Close())

	for _, id := range []domain.InstallID{"hello", "jq"} {
		locked := lockfile.Packages["x86_64-linux"][id]
		require.NotNil(t, locked, string(id))
		assert.Equal(t, secondaryPin.Fingerprint, locked.Input.Fingerprint, string(id))
	}
}

func TestCreateLockfileGroupRenameKeepsPin(t *testing.T) {
	ctrl := gomock.NewController(t)

	oldManifest := twoInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello"), Group: strPtr("tools")},
	})
	manifest := twoInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello"), Group: strPtr("utils")},
	})

	primaryPin := &domain.LockedInput{Fingerprint: "1111111111111111", URL: "github:primary/pkgs/rev"}
	secondaryPin := &domain.LockedInput{Fingerprint: "2222222222222222", URL: "github:secondary/pkgs/rev"}

	oldLock := &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Manifest: oldManifest.Raw,
		Registry: pinnedRegistry(oldManifest, map[string]*domain.LockedInput{
			"primary":   primaryPin,
			"secondary": secondaryPin,
		}),
		Packages: map[domain.System]domain.SystemPackages{
			"x86_64-linux": {
				"hello": {
					Input:    *secondaryPin,
					AttrPath: domain.AttrPath{"packages", "x86_64-linux", "hello"},
					Priority: domain.DefaultPriority,
					Info:     domain.PackageInfo{Pname: "hello", Version: "1.0.0"},
				},
			},
		},
	}

	reader := mocks.NewMockIndexReader(ctrl)
	reader.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.PkgRow{row("hello", "1.0.0")}, nil)
	reader.EXPECT().Close().Return(nil)

	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Open(gomock.Any(), secondaryPin).Return(reader, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
		locker.WithOldLockfile(oldLock))
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.Close())

	locked := lockfile.Packages["x86_64-linux"]["hello"]
	require.NotNil(t, locked)
	assert.Equal(t, secondaryPin.Fingerprint, locked.Input.Fingerprint)
}

func TestCreateLockfileStalePinRelocks(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"hello": {Name: strPtr("hello")},
	})
	oldLock := freshLockfile(t, manifest, "2.12.1")

	newPin := &domain.LockedInput{
		Fingerprint: "ffffffffffffffff",
		URL:         "github:NixOS/nixpkgs/rev2",
		Attrs:       map[string]string{"rev": "rev2"},
	}

	reader := mocks.NewMockIndexReader(ctrl)
	reader.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]domain.PkgRow{row("hello", "2.13.0")}, nil)
	reader.EXPECT().Close().Return(nil)

	// The forced pin replaces the carried one, so the old pin drops out
	// of the registry and the group must re-resolve against the new
	// revision.
	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Open(gomock.Any(), newPin).Return(reader, nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
		locker.WithOldLockfile(oldLock),
		locker.WithPins(map[string]*domain.LockedInput{"nixpkgs": newPin}))
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.Close())

	locked := lockfile.Packages["x86_64-linux"]["hello"]
	require.NotNil(t, locked)
	assert.Equal(t, newPin.Fingerprint, locked.Input.Fingerprint)
	assert.Equal(t, "2.13.0", locked.Info.Version)

	changes := domain.Diff(oldLock, lockfile)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeUpdated, changes[0].Kind)
}

func TestCreateLockfileSystemListChanges(t *testing.T) {
	t.Run("dropping another system keeps the group locked", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		oldManifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
			"hello": {Name: strPtr("hello"), Systems: []domain.System{"x86_64-linux", "aarch64-darwin"}},
		})
		oldLock := freshLockfile(t, oldManifest, "2.12.1")

		manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
			"hello": {Name: strPtr("hello"), Systems: []domain.System{"x86_64-linux"}},
		})

		index := mocks.NewMockPackageIndex(ctrl)
		env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
			locker.WithOldLockfile(oldLock))
		lockfile, err := env.CreateLockfile(context.Background())
		require.NoError(t, err)

		locked := lockfile.Packages["x86_64-linux"]["hello"]
		require.NotNil(t, locked)
		assert.Equal(t, "2.12.1", locked.Info.Version)
	})

	t.Run("dropping the target system relocks to null", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		oldManifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
			"hello": {Name: strPtr("hello")},
		})
		oldLock := freshLockfile(t, oldManifest, "2.12.1")

		manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
			"hello": {Name: strPtr("hello"), Systems: []domain.System{"aarch64-darwin"}},
		})

		reader := mocks.NewMockIndexReader(ctrl)
		reader.EXPECT().Close().Return(nil)

		index := mocks.NewMockPackageIndex(ctrl)
		index.EXPECT().Open(gomock.Any(), testPin()).Return(reader, nil)

		env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
			locker.WithOldLockfile(oldLock))
		lockfile, err := env.CreateLockfile(context.Background())
		require.NoError(t, err)
		require.NoError(t, env.Close())

		pkg, present := lockfile.Packages["x86_64-linux"]["hello"]
		assert.True(t, present)
		assert.Nil(t, pkg)
	})
}

func TestCreateLockfileNullEntryStaysLocked(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"maybe": {Name: strPtr("ghost"), Optional: boolPtr(true)},
	})
	oldLock := freshLockfile(t, manifest, "1.0.0")
	oldLock.Packages["x86_64-linux"]["maybe"] = nil

	// The null entry counts as resolved-to-absent; nothing is searched
	// again.
	index := mocks.NewMockPackageIndex(ctrl)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
		locker.WithOldLockfile(oldLock))
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)

	pkg, present := lockfile.Packages["x86_64-linux"]["maybe"]
	assert.True(t, present)
	assert.Nil(t, pkg)
}

func TestCreateLockfileEmptyManifest(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := singleInputManifest(t, nil)

	index := mocks.NewMockPackageIndex(ctrl)
	index.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(testPin(), nil)

	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer())
	lockfile, err := env.CreateLockfile(context.Background())
	require.NoError(t, err)

	packages, ok := lockfile.Packages["x86_64-linux"]
	require.True(t, ok)
	assert.Empty(t, packages)
}

func TestCreateLockfileRejectsMixedInputGroup(t *testing.T) {
	ctrl := gomock.NewController(t)
	manifest := twoInputManifest(t, map[domain.InstallID]domain.RawDescriptor{
		"a": {Name: strPtr("a")},
		"b": {Name: strPtr("b")},
	})

	primaryPin := &domain.LockedInput{Fingerprint: "1111111111111111", URL: "github:primary/pkgs/rev"}
	secondaryPin := &domain.LockedInput{Fingerprint: "2222222222222222", URL: "github:secondary/pkgs/rev"}

	// An old lockfile whose group straddles two inputs copies forward
	// untouched; assembly validation has to catch it.
	oldLock := &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Manifest: manifest.Raw,
		Registry: pinnedRegistry(manifest, map[string]*domain.LockedInput{
			"primary":   primaryPin,
			"secondary": secondaryPin,
		}),
		Packages: map[domain.System]domain.SystemPackages{
			"x86_64-linux": {
				"a": {
					Input:    *primaryPin,
					AttrPath: domain.AttrPath{"packages", "x86_64-linux", "a"},
					Priority: domain.DefaultPriority,
					Info:     domain.PackageInfo{Pname: "a", Version: "1.0.0"},
				},
				"b": {
					Input:    *secondaryPin,
					AttrPath: domain.AttrPath{"packages", "x86_64-linux", "b"},
					Priority: domain.DefaultPriority,
					Info:     domain.PackageInfo{Pname: "b", Version: "1.0.0"},
				},
			},
		},
	}

	index := mocks.NewMockPackageIndex(ctrl)
	env := locker.New(manifest, index, quietLogger(ctrl), telemetry.NewNoopTracer(),
		locker.WithOldLockfile(oldLock))
	_, err := env.CreateLockfile(context.Background())
	assert.ErrorIs(t, err, domain.ErrMultipleGroupInputs)
}

func intPtr(i int) *int { return &i }

// twoInputManifest declares primary and secondary github inputs with
// primary ranked first, locking a single system.
func twoInputManifest(t *testing.T, install map[domain.InstallID]domain.RawDescriptor) *domain.Manifest {
	t.Helper()
	primaryRef, err := domain.ParseSourceRef("github:primary/pkgs")
	require.NoError(t, err)
	secondaryRef, err := domain.ParseSourceRef("github:secondary/pkgs")
	require.NoError(t, err)
	return testManifest(t, domain.RawManifest{
		Install: install,
		Registry: domain.Registry{
			Inputs: map[string]domain.RegistryInput{
				"primary":   {From: primaryRef},
				"secondary": {From: secondaryRef},
			},
			Priority: []string{"primary", "secondary"},
		},
		Options: domain.Options{Systems: []domain.System{"x86_64-linux"}},
	})
}

// pinnedRegistry clones a manifest's registry with the given pins locked in.
func pinnedRegistry(manifest *domain.Manifest, pins map[string]*domain.LockedInput) domain.Registry {
	registry := manifest.Raw.Registry.Clone()
	for name, pin := range pins {
		input := registry.Inputs[name]
		locked := *pin
		input.Locked = &locked
		registry.Inputs[name] = input
	}
	return registry
}

// freshLockfile fabricates the lockfile a fresh run over the manifest
// would produce, with every install resolved at the given version.
func freshLockfile(t *testing.T, manifest *domain.Manifest, version string) *domain.Lockfile {
	t.Helper()

	registry := manifest.Raw.Registry.Clone()
	for name, input := range registry.Inputs {
		input.Locked = testPin()
		registry.Inputs[name] = input
	}

	packages := make(domain.SystemPackages)
	for id, desc := range manifest.Descriptors {
		packages[id] = &domain.LockedPackage{
			Input:    *testPin(),
			AttrPath: domain.AttrPath{"packages", "x86_64-linux", desc.Name},
			Priority: desc.Priority,
			Info:     domain.PackageInfo{Pname: desc.Name, Version: version},
		}
	}
	return &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Manifest: manifest.Raw,
		Registry: registry,
		Packages: map[domain.System]domain.SystemPackages{"x86_64-linux": packages},
	}
}

var _ ports.PackageIndex = (*mocks.MockPackageIndex)(nil)
