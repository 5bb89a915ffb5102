package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// SourceRef is a reference to a package source as declared in a manifest
// registry or a descriptor's input override. It is a flat attribute set
// that must carry a "type" attribute, e.g.
//
//	{"type": "github", "owner": "NixOS", "repo": "nixpkgs"}
type SourceRef map[string]string

// RefType returns the source type, or "" if unset.
func (r SourceRef) RefType() string { return r["type"] }

// String renders the canonical url form of the reference.
func (r SourceRef) String() string {
	switch r.RefType() {
	case "github", "gitlab":
		s := r.RefType() + ":" + r["owner"] + "/" + r["repo"]
		if rev := r["rev"]; rev != "" {
			s += "/" + rev
		} else if ref := r["ref"]; ref != "" {
			s += "/" + ref
		}
		return s
	case "indirect":
		return "flake:" + r["id"]
	case "path":
		return "path:" + r["path"]
	default:
		return r["url"]
	}
}

// Equal reports whether two references have identical attributes.
func (r SourceRef) Equal(other SourceRef) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		if other[k] != v {
			return false
		}
	}
	return true
}

// Clone returns a copy of the reference.
func (r SourceRef) Clone() SourceRef {
	out := make(SourceRef, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ParseSourceRef parses the url form of a source reference.
//
//	github:OWNER/REPO[/REF]   -> github source
//	gitlab:OWNER/REPO[/REF]   -> gitlab source
//	path:/some/dir            -> local path source
//	https://... | http://...  -> tarball source
//	NAME                      -> indirect reference (rejected at lock time)
func ParseSourceRef(s string) (SourceRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, zerr.With(zerr.Wrap(ErrInvalidSourceRef, s), "ref", s)
	}
	scheme, rest, ok := strings.Cut(s, ":")
	if !ok {
		return SourceRef{"type": "indirect", "id": s}, nil
	}
	switch scheme {
	case "github", "gitlab":
		parts := strings.Split(rest, "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, zerr.With(zerr.Wrap(ErrInvalidSourceRef, s), "ref", s)
		}
		ref := SourceRef{"type": scheme, "owner": parts[0], "repo": parts[1]}
		if len(parts) > 2 {
			ref["ref"] = strings.Join(parts[2:], "/")
		}
		return ref, nil
	case "path":
		return SourceRef{"type": "path", "path": rest}, nil
	case "flake":
		return SourceRef{"type": "indirect", "id": rest}, nil
	case "http", "https":
		return SourceRef{"type": "tarball", "url": s}, nil
	default:
		return nil, zerr.With(zerr.Wrap(ErrInvalidSourceRef, s), "ref", s)
	}
}

// Fingerprint identifies a concrete revision of an input by content hash.
type Fingerprint string

// FingerprintOf hashes the canonical form of a pinned input.
func FingerprintOf(url string, attrs map[string]string) Fingerprint {
	digest := xxhash.New()
	_, _ = digest.WriteString(url)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = digest.WriteString("\x00" + k + "=" + attrs[k])
	}
	return Fingerprint(fmt.Sprintf("%016x", digest.Sum64()))
}

// RegistryInput is one named entry in the input registry.
type RegistryInput struct {
	// From is the declared source reference.
	From SourceRef `json:"from"`
	// Locked is the pinned revision, set once the input has been locked.
	Locked *LockedInput `json:"locked,omitempty"`
}

// Registry is the named-input registry: a set of package sources and the
// order in which they are tried during resolution.
type Registry struct {
	Inputs   map[string]RegistryInput `json:"inputs"`
	Priority []string                 `json:"priority,omitempty"`
}

// OrderedNames returns input names in resolution order: the declared
// priority list first, then any remaining inputs sorted by name. The
// order is stable across runs with an unchanged registry.
func (r *Registry) OrderedNames() []string {
	names := make([]string, 0, len(r.Inputs))
	seen := make(map[string]bool, len(r.Inputs))
	for _, name := range r.Priority {
		if _, ok := r.Inputs[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(r.Inputs))
	for name := range r.Inputs {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Clone returns a deep copy of the registry.
func (r *Registry) Clone() Registry {
	out := Registry{Inputs: make(map[string]RegistryInput, len(r.Inputs))}
	for name, input := range r.Inputs {
		cloned := RegistryInput{From: input.From.Clone()}
		if input.Locked != nil {
			locked := *input.Locked
			cloned.Locked = &locked
		}
		out.Inputs[name] = cloned
	}
	out.Priority = append(out.Priority, r.Priority...)
	return out
}

// Merge overlays other onto r; entries in other win on name collision and
// other's priority order is appended after r's.
func (r *Registry) Merge(other Registry) {
	if r.Inputs == nil && len(other.Inputs) > 0 {
		r.Inputs = make(map[string]RegistryInput, len(other.Inputs))
	}
	for name, input := range other.Inputs {
		r.Inputs[name] = input
	}
	for _, name := range other.Priority {
		if !containsString(r.Priority, name) {
			r.Priority = append(r.Priority, name)
		}
	}
}

// UnmarshalJSON rejects unknown registry input fields.
func (ri *RegistryInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		var err error
		switch key {
		case "from":
			err = json.Unmarshal(value, &ri.From)
		case "locked":
			err = json.Unmarshal(value, &ri.Locked)
		default:
			return zerr.With(zerr.Wrap(ErrUnknownLockfileField, "registry.inputs.*."+key), "field", "registry.inputs.*."+key)
		}
		if err != nil {
			return zerr.Wrap(err, "failed to parse registry input field '"+key+"'")
		}
	}
	return nil
}

// UnmarshalJSON rejects unknown registry fields.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		var err error
		switch key {
		case "inputs":
			err = json.Unmarshal(value, &r.Inputs)
		case "priority":
			err = json.Unmarshal(value, &r.Priority)
		default:
			return zerr.With(zerr.Wrap(ErrUnknownLockfileField, "registry."+key), "field", "registry."+key)
		}
		if err != nil {
			return zerr.Wrap(err, "failed to parse registry field '"+key+"'")
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, elem := range list {
		if elem == s {
			return true
		}
	}
	return false
}
