package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// AttrPath is an attribute path split into parts.
type AttrPath []string

// SplitAttrPath splits a dotted attribute path string.
func SplitAttrPath(s string) AttrPath {
	if s == "" {
		return nil
	}
	return AttrPath(strings.Split(s, "."))
}

// String joins the path with dots.
func (p AttrPath) String() string { return strings.Join(p, ".") }

// Equal reports element-wise equality.
func (p AttrPath) Equal(other AttrPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// isGlob reports whether an attribute path element is a wildcard
// placeholder. Both "*" and "null" are accepted.
func isGlob(part string) bool { return part == "*" || part == "null" }

// wildcarded reports whether a path element is a glob or merely contains
// a wildcard character. Only the whole-element form means anything, and
// only in the system position of an abspath; "pk*g" is rejected outright.
func wildcarded(part string) bool { return isGlob(part) || strings.Contains(part, "*") }

// PathForm is a raw attribute path that may arrive as a dotted string or
// as a list of parts. It exists only at the manifest boundary; the
// normalizer turns it into an AttrPath and nothing downstream sees it.
type PathForm struct {
	Str   *string
	Parts []string
}

// parts returns the split form regardless of how the path arrived.
func (p *PathForm) parts() []string {
	if p.Str != nil {
		return SplitAttrPath(*p.Str)
	}
	return p.Parts
}

// MarshalJSON emits whichever form the path arrived in.
func (p PathForm) MarshalJSON() ([]byte, error) {
	if p.Str != nil {
		return json.Marshal(*p.Str)
	}
	return json.Marshal(p.Parts)
}

// UnmarshalJSON accepts a string or a list of strings.
func (p *PathForm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Str = &s
		p.Parts = nil
		return nil
	}
	p.Str = nil
	return json.Unmarshal(data, &p.Parts)
}

// InputForm is a raw package-repository override that may arrive as a url
// string or as a source attribute set.
type InputForm struct {
	Str   *string
	Attrs SourceRef
}

// MarshalJSON emits whichever form the override arrived in.
func (f InputForm) MarshalJSON() ([]byte, error) {
	if f.Str != nil {
		return json.Marshal(*f.Str)
	}
	return json.Marshal(f.Attrs)
}

// UnmarshalJSON accepts a string or an attribute object.
func (f *InputForm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Str = &s
		f.Attrs = nil
		return nil
	}
	f.Str = nil
	return json.Unmarshal(data, &f.Attrs)
}

// resolve returns the override as a SourceRef.
func (f *InputForm) resolve() (SourceRef, error) {
	if f.Str != nil {
		return ParseSourceRef(*f.Str)
	}
	if f.Attrs.RefType() == "" {
		return nil, zerr.Wrap(ErrInvalidSourceRef, "missing type attribute")
	}
	return f.Attrs.Clone(), nil
}

// RawDescriptor is a single user-facing package request exactly as it
// appears in the manifest. It is immutable once parsed.
type RawDescriptor struct {
	Name     *string
	Version  *string
	Path     *PathForm
	AbsPath  *PathForm
	Systems  []System
	Optional *bool
	Group    *string
	Input    *InputForm
	Priority *int
}

// rawDescriptorFields maps JSON keys to setters; anything else is rejected.
func (rd *RawDescriptor) setField(key string, value json.RawMessage) error {
	switch key {
	case "name":
		return json.Unmarshal(value, &rd.Name)
	case "version":
		return json.Unmarshal(value, &rd.Version)
	case "path":
		return json.Unmarshal(value, &rd.Path)
	case "abspath":
		return json.Unmarshal(value, &rd.AbsPath)
	case "systems":
		return json.Unmarshal(value, &rd.Systems)
	case "optional":
		return json.Unmarshal(value, &rd.Optional)
	case "package-group":
		return json.Unmarshal(value, &rd.Group)
	case "package-repository":
		return json.Unmarshal(value, &rd.Input)
	case "priority":
		return json.Unmarshal(value, &rd.Priority)
	default:
		return zerr.With(zerr.Wrap(ErrUnknownManifestField, key), "field", key)
	}
}

// UnmarshalJSON rejects unknown descriptor fields.
func (rd *RawDescriptor) UnmarshalJSON(data []byte) error {
	// Shorthand string form.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseDescriptor(s)
		if err != nil {
			return err
		}
		*rd = parsed
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return zerr.Wrap(err, "manifest descriptor must be an object or string")
	}
	for key, value := range fields {
		if err := rd.setField(key, value); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON emits only the fields that were set.
func (rd RawDescriptor) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 9)
	if rd.Name != nil {
		out["name"] = *rd.Name
	}
	if rd.Version != nil {
		out["version"] = *rd.Version
	}
	if rd.Path != nil {
		out["path"] = *rd.Path
	}
	if rd.AbsPath != nil {
		out["abspath"] = *rd.AbsPath
	}
	if rd.Systems != nil {
		out["systems"] = rd.Systems
	}
	if rd.Optional != nil {
		out["optional"] = *rd.Optional
	}
	if rd.Group != nil {
		out["package-group"] = *rd.Group
	}
	if rd.Input != nil {
		out["package-repository"] = *rd.Input
	}
	if rd.Priority != nil {
		out["priority"] = *rd.Priority
	}
	return json.Marshal(out)
}

// ParseDescriptor parses the shorthand string form
//
//	[input:]attrs[@version]
//
// where attrs is classified by arity: one segment is an exact-name match,
// two segments a relative path, three or more starting with a known
// category an absolute path (with a possible system glob).
func ParseDescriptor(s string) (RawDescriptor, error) {
	var rd RawDescriptor

	rest := strings.TrimSpace(s)
	if input, after, ok := strings.Cut(rest, ":"); ok {
		if input == "" {
			return rd, zerr.With(zerr.Wrap(ErrEmptyDescriptor, s), "descriptor", s)
		}
		form := InputForm{Str: &input}
		rd.Input = &form
		rest = after
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		version := rest[at+1:]
		rd.Version = &version
		rest = rest[:at]
	}
	if rest == "" {
		return rd, zerr.With(zerr.Wrap(ErrEmptyDescriptor, s), "descriptor", s)
	}

	parts := strings.Split(rest, ".")
	switch {
	case len(parts) == 1:
		rd.Name = &rest
	case len(parts) >= 3 && KnownCategory(parts[0]):
		rd.AbsPath = &PathForm{Str: &rest}
	default:
		rd.Path = &PathForm{Str: &rest}
	}
	return rd, nil
}

// Descriptor is the canonical form of a package request produced by the
// normalizer. Exactly zero or one of Version and Semver is set.
type Descriptor struct {
	// Name must exactly match a package's pname or attribute name.
	Name string
	// Version is an exact version matcher.
	Version *string
	// Semver is a semantic version range; the empty string matches anything.
	Semver *string
	// Subtree is the category under which the package is reached.
	Subtree string
	// RelPath is the attribute path below the category and system.
	RelPath AttrPath
	// Systems restricts the request to these systems; nil means all.
	Systems []System
	// Input overrides the registry for this request.
	Input SourceRef
	// Group names the resolution group; "" buckets into the default group.
	Group GroupName
	// Priority orders packages during environment realization.
	Priority int
	// Optional requests resolve to absent instead of failing the run.
	Optional bool
}

// NewDescriptor normalizes a raw request into its canonical form.
func NewDescriptor(raw RawDescriptor) (Descriptor, error) {
	desc := Descriptor{Priority: DefaultPriority}

	if raw.Name != nil {
		desc.Name = *raw.Name
	}
	if raw.Optional != nil {
		desc.Optional = *raw.Optional
	}
	if raw.Group != nil {
		desc.Group = GroupName(*raw.Group)
	}

	// The string "4.2.0" is not a range, but "4.2" is; matching the
	// version field "4.2" exactly requires "=4.2".
	if raw.Version != nil {
		version := strings.TrimSpace(*raw.Version)
		switch {
		case version == "":
			desc.Semver = &version
		case version[0] == '=':
			exact := version[1:]
			desc.Version = &exact
		case strings.ContainsRune("*~^><", rune(version[0])):
			desc.Semver = &version
		case IsSemver(version) || IsDate(version) || !IsSemverRange(version):
			desc.Version = &version
		default:
			desc.Semver = &version
		}
	}

	// abspath has to be split before most other fields.
	if raw.AbsPath != nil {
		if err := initAbsPath(&desc, raw); err != nil {
			return desc, err
		}
	}

	// Only set if it wasn't fixed by the abspath.
	if desc.Systems == nil && raw.Systems != nil {
		desc.Systems = append([]System(nil), raw.Systems...)
	}

	if raw.Path != nil {
		relPath := AttrPath(raw.Path.parts())
		for _, part := range relPath {
			if wildcarded(part) {
				return desc, zerr.With(zerr.Wrap(ErrGlobNotAllowed, relPath.String()), "path", relPath.String())
			}
		}
		if desc.RelPath != nil {
			if !desc.RelPath.Equal(relPath) {
				return desc, zerr.With(
					zerr.With(zerr.Wrap(ErrPathConflict, relPath.String()), "path", relPath.String()),
					"abspath_tail", desc.RelPath.String(),
				)
			}
		} else {
			desc.RelPath = relPath
		}
	}

	if raw.Input != nil {
		input, err := raw.Input.resolve()
		if err != nil {
			return desc, err
		}
		desc.Input = input
	}

	if raw.Priority != nil {
		if *raw.Priority < 1 {
			return desc, zerr.With(zerr.Wrap(ErrInvalidPriority, strconv.Itoa(*raw.Priority)), "priority", *raw.Priority)
		}
		desc.Priority = *raw.Priority
	}

	if desc.Name == "" && desc.RelPath == nil {
		return desc, ErrEmptyDescriptor
	}
	return desc, nil
}

// initAbsPath fills subtree, relative path and a fixed system from the
// absolute path form. The layout is category.system.rest... where the
// system element may be a glob meaning "any system".
func initAbsPath(desc *Descriptor, raw RawDescriptor) error {
	parts := raw.AbsPath.parts()
	if len(parts) < 3 {
		return zerr.With(zerr.Wrap(ErrInvalidAbsPath, strings.Join(parts, ".")), "abspath", strings.Join(parts, "."))
	}

	if isGlob(parts[0]) || !KnownCategory(parts[0]) {
		return zerr.With(zerr.Wrap(ErrUnknownCategory, parts[0]), "category", parts[0])
	}
	desc.Subtree = parts[0]

	desc.RelPath = nil
	for _, part := range parts[2:] {
		if wildcarded(part) {
			return zerr.With(zerr.Wrap(ErrGlobNotAllowed, strings.Join(parts, ".")), "abspath", strings.Join(parts, "."))
		}
		desc.RelPath = append(desc.RelPath, part)
	}

	if system := parts[1]; !isGlob(system) {
		desc.Systems = []System{System(system)}
		if raw.Systems != nil &&
			(len(raw.Systems) != 1 || raw.Systems[0] != System(system)) {
			return zerr.With(zerr.Wrap(ErrSystemsConflict, system), "system", system)
		}
	}
	return nil
}

// SamePackage reports whether two descriptors request the same package.
// Group, optional, priority and systems do not change what the package
// is and are compared separately where they matter.
func (d Descriptor) SamePackage(other Descriptor) bool {
	return d.Name == other.Name &&
		equalStrPtr(d.Version, other.Version) &&
		equalStrPtr(d.Semver, other.Semver) &&
		d.Subtree == other.Subtree &&
		d.RelPath.Equal(other.RelPath) &&
		sourceRefEqual(d.Input, other.Input)
}

// Unchanged reports whether the request is identical for relocking
// purposes: same package, same group, same optional flag. Priority is
// ignored and systems are handled per target system by the planner.
func (d Descriptor) Unchanged(other Descriptor) bool {
	return d.SamePackage(other) &&
		d.Group == other.Group &&
		d.Optional == other.Optional
}

// SystemSkipped reports whether the descriptor excludes the given system.
func (d Descriptor) SystemSkipped(system System) bool {
	if d.Systems == nil {
		return false
	}
	for _, s := range d.Systems {
		if s == system {
			return false
		}
	}
	return true
}

func equalStrPtr(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func sourceRefEqual(a, b SourceRef) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(b)
}
