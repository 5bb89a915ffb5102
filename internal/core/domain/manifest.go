package domain

import (
	"encoding/json"

	"go.trai.ch/zerr"
)

// AllowOptions gates which package licenses and quality flags are
// acceptable at lock time.
type AllowOptions struct {
	// Unfree admits packages with an unfree license. Defaults to true.
	Unfree *bool `json:"unfree,omitempty"`
	// Broken admits packages marked broken. Defaults to false.
	Broken *bool `json:"broken,omitempty"`
	// Licenses restricts packages to these license ids when non-empty.
	Licenses []string `json:"licenses,omitempty"`
}

// SemverOptions tunes semantic version range matching.
type SemverOptions struct {
	// PreferPreReleases ranks pre-release versions above their release.
	PreferPreReleases bool `json:"prefer-pre-releases,omitempty"`
}

// Options are the manifest-wide knobs that shape resolution.
type Options struct {
	// Systems are the platforms to lock; nil falls back to DefaultSystems.
	Systems []System      `json:"systems,omitempty"`
	Allow   AllowOptions  `json:"allow,omitempty"`
	Semver  SemverOptions `json:"semver,omitempty"`
}

// AllowUnfree reports the effective unfree policy.
func (o *Options) AllowUnfree() bool {
	return o.Allow.Unfree == nil || *o.Allow.Unfree
}

// AllowBroken reports the effective broken policy.
func (o *Options) AllowBroken() bool {
	return o.Allow.Broken != nil && *o.Allow.Broken
}

// UnmarshalJSON rejects unknown option fields.
func (o *Options) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		var err error
		switch key {
		case "systems":
			err = json.Unmarshal(value, &o.Systems)
		case "allow":
			err = unmarshalAllow(value, &o.Allow)
		case "semver":
			err = unmarshalSemver(value, &o.Semver)
		default:
			return zerr.With(zerr.Wrap(ErrUnknownManifestField, "options."+key), "field", "options."+key)
		}
		if err != nil {
			return zerr.Wrap(err, "failed to parse option '"+key+"'")
		}
	}
	return nil
}

func unmarshalAllow(data []byte, allow *AllowOptions) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		var err error
		switch key {
		case "unfree":
			err = json.Unmarshal(value, &allow.Unfree)
		case "broken":
			err = json.Unmarshal(value, &allow.Broken)
		case "licenses":
			err = json.Unmarshal(value, &allow.Licenses)
		default:
			return zerr.With(zerr.Wrap(ErrUnknownManifestField, "options.allow."+key), "field", "options.allow."+key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func unmarshalSemver(data []byte, opts *SemverOptions) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		switch key {
		case "prefer-pre-releases":
			if err := json.Unmarshal(value, &opts.PreferPreReleases); err != nil {
				return err
			}
		default:
			return zerr.With(zerr.Wrap(ErrUnknownManifestField, "options.semver."+key), "field", "options.semver."+key)
		}
	}
	return nil
}

// RawManifest is the user manifest as written, before descriptor
// normalization. It is preserved verbatim inside the lockfile.
type RawManifest struct {
	Install  map[InstallID]RawDescriptor `json:"install,omitempty"`
	Registry Registry                    `json:"registry,omitempty"`
	Options  Options                     `json:"options,omitempty"`
}

// UnmarshalJSON rejects unknown manifest fields.
func (m *RawManifest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		var err error
		switch key {
		case "install":
			err = json.Unmarshal(value, &m.Install)
		case "registry":
			err = json.Unmarshal(value, &m.Registry)
		case "options":
			err = json.Unmarshal(value, &m.Options)
		default:
			return zerr.With(zerr.Wrap(ErrUnknownManifestField, key), "field", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Manifest is a raw manifest with every descriptor normalized.
type Manifest struct {
	Raw         RawManifest
	Descriptors map[InstallID]Descriptor
}

// NewManifest normalizes every install entry of a raw manifest.
func NewManifest(raw RawManifest) (Manifest, error) {
	manifest := Manifest{
		Raw:         raw,
		Descriptors: make(map[InstallID]Descriptor, len(raw.Install)),
	}
	for id, rawDesc := range raw.Install {
		if id == "" {
			return manifest, ErrEmptyInstallID
		}
		desc, err := NewDescriptor(rawDesc)
		if err != nil {
			return manifest, zerr.With(err, "install_id", string(id))
		}
		manifest.Descriptors[id] = desc
	}
	return manifest, nil
}

// Groups buckets the manifest's descriptors into resolution groups.
func (m *Manifest) Groups() []Group {
	return GroupDescriptors(m.Descriptors)
}

// Systems returns the platforms to lock.
func (m *Manifest) Systems() []System {
	if m.Raw.Options.Systems != nil {
		return m.Raw.Options.Systems
	}
	return DefaultSystems
}

// Descriptor returns the normalized descriptor for id, or nil.
func (m *Manifest) Descriptor(id InstallID) *Descriptor {
	if desc, ok := m.Descriptors[id]; ok {
		return &desc
	}
	return nil
}
