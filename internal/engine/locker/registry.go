package locker

import (
	"context"

	"github.com/pindown/pindown/internal/core/domain"
	"github.com/pindown/pindown/internal/core/ports"
	"go.trai.ch/zerr"
)

// combinedRegistry builds the effective registry for the run: the
// manifest's registry with pins carried over from the old lockfile for
// inputs whose declared source is unchanged, then every remaining input
// pinned fresh. Inputs dropped from the manifest are not carried over.
func (e *Environment) combinedRegistry(ctx context.Context) (*domain.Registry, error) {
	if e.registry != nil {
		return e.registry, nil
	}

	registry := e.manifest.Raw.Registry.Clone()
	if registry.Inputs == nil {
		registry.Inputs = make(map[string]domain.RegistryInput)
	}

	if e.oldLock != nil {
		carried := domain.Registry{Inputs: make(map[string]domain.RegistryInput)}
		for name, input := range registry.Inputs {
			old, ok := e.oldLock.Registry.Inputs[name]
			if !ok || old.Locked == nil || !old.From.Equal(input.From) {
				continue
			}
			locked := *old.Locked
			carried.Inputs[name] = domain.RegistryInput{From: input.From, Locked: &locked}
		}
		registry.Merge(carried)
	}

	if len(e.pins) > 0 {
		pinned := domain.Registry{Inputs: make(map[string]domain.RegistryInput)}
		for name, pin := range e.pins {
			input, ok := registry.Inputs[name]
			if !ok || pin == nil {
				continue
			}
			locked := *pin
			pinned.Inputs[name] = domain.RegistryInput{From: input.From, Locked: &locked}
		}
		registry.Merge(pinned)
	}

	for _, name := range registry.OrderedNames() {
		input := registry.Inputs[name]
		if input.From.RefType() == "indirect" {
			return nil, zerr.With(zerr.Wrap(domain.ErrIndirectInput, name), "input", name)
		}
		if input.Locked != nil {
			continue
		}
		locked, err := e.index.Lock(ctx, input.From)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to pin input"), "input", name)
		}
		input.Locked = locked
		registry.Inputs[name] = input
	}

	e.registry = &registry
	return e.registry, nil
}

// registryHas reports whether any pinned registry input carries the
// fingerprint.
func (e *Environment) registryHas(fingerprint domain.Fingerprint) bool {
	if e.registry == nil {
		return false
	}
	for _, input := range e.registry.Inputs {
		if input.Locked != nil && input.Locked.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}

// reader returns a cached index reader for a pinned input, opening one on
// first use.
func (e *Environment) reader(ctx context.Context, input *domain.LockedInput) (ports.IndexReader, error) {
	if reader, ok := e.readers[input.Fingerprint]; ok {
		return reader, nil
	}
	reader, err := e.index.Open(ctx, input)
	if err != nil {
		return nil, zerr.With(err, "input", input.URL)
	}
	e.readers[input.Fingerprint] = reader
	return reader, nil
}
