package locker

import (
	"context"

	"github.com/pindown/pindown/internal/core/domain"
	"github.com/pindown/pindown/internal/core/ports"
)

// attempt records one input that failed to satisfy an install id.
type attempt struct {
	ID  domain.InstallID
	URL string
}

// groupFailure collects the failed attempts for one unresolved group.
type groupFailure struct {
	Group    domain.GroupName
	System   domain.System
	Attempts []attempt
}

// tryResolveGroup resolves a group for one system, trying the group's
// previous input first so an unchanged request stays on its pinned
// revision, then the registry inputs in resolution order. A nil failure
// means success; a non-nil error is a hard fault such as a broken index.
func (e *Environment) tryResolveGroup(
	ctx context.Context,
	group *domain.Group,
	system domain.System,
) (domain.SystemPackages, *groupFailure, error) {
	registry, err := e.combinedRegistry(ctx)
	if err != nil {
		return nil, nil, err
	}

	var candidates []*domain.LockedInput
	previous := e.groupInput(group, system)
	if previous != nil && !e.registryHas(previous.Fingerprint) {
		// The old pin left the registry, e.g. after an update; the
		// refreshed inputs take over.
		previous = nil
	}
	if previous != nil {
		candidates = append(candidates, previous)
	}
	for _, name := range registry.OrderedNames() {
		locked := registry.Inputs[name].Locked
		if previous != nil && locked.Fingerprint == previous.Fingerprint {
			continue
		}
		candidates = append(candidates, locked)
	}

	failure := &groupFailure{Group: group.Name, System: system}
	for _, input := range candidates {
		reader, err := e.reader(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		packages, failedID, err := e.tryResolveGroupIn(ctx, group, reader, input, system)
		if err != nil {
			return nil, nil, err
		}
		if failedID == "" {
			return packages, nil, nil
		}
		failure.Attempts = append(failure.Attempts, attempt{ID: failedID, URL: input.URL})
	}
	return nil, failure, nil
}

// tryResolveGroupIn resolves every member of a group against a single
// input. Members that skip the system or are optional and absent lock to
// null; the first required member with no match aborts the input and its
// id is returned.
func (e *Environment) tryResolveGroupIn(
	ctx context.Context,
	group *domain.Group,
	reader ports.IndexReader,
	input *domain.LockedInput,
	system domain.System,
) (domain.SystemPackages, domain.InstallID, error) {
	packages := make(domain.SystemPackages, len(group.Members))
	for _, member := range group.Members {
		desc := member.Descriptor
		if desc.SystemSkipped(system) {
			packages[member.ID] = nil
			continue
		}

		query := domain.QueryFromDescriptor(&desc, system, &e.manifest.Raw.Options)
		rows, err := reader.Search(ctx, query)
		if err != nil {
			return nil, "", err
		}
		if len(rows) == 0 {
			if desc.Optional {
				packages[member.ID] = nil
				continue
			}
			return nil, member.ID, nil
		}

		best := rows[0]
		packages[member.ID] = &domain.LockedPackage{
			Input:    *input,
			AttrPath: best.AbsPath,
			Priority: desc.Priority,
			Info:     best.Info(),
		}
	}
	return packages, "", nil
}
