// Package manifest implements the manifest loading adapter. Manifests may
// be written in TOML, YAML or JSON; every format is converted to the JSON
// object model before the strict parse so unknown fields are rejected
// uniformly.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pindown/pindown/internal/core/domain"
	"github.com/pindown/pindown/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ManifestLoader.
type Loader struct{}

// NewLoader creates a new manifest Loader.
func NewLoader() ports.ManifestLoader {
	return &Loader{}
}

// Load reads the manifest at path and normalizes its descriptors.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrManifestReadFailed, err.Error()),
			"file", path,
		)
	}

	raw, err := parse(data, filepath.Ext(path))
	if err != nil {
		return nil, zerr.With(err, "file", path)
	}

	manifest, err := domain.NewManifest(*raw)
	if err != nil {
		return nil, zerr.With(err, "file", path)
	}
	return &manifest, nil
}

// parse decodes the manifest bytes according to the file extension.
// TOML is the default when the extension is unrecognized.
func parse(data []byte, ext string) (*domain.RawManifest, error) {
	var tree map[string]any
	var err error

	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tree)
	case ".json":
		var raw domain.RawManifest
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, zerr.Wrap(domain.ErrManifestParseFailed, err.Error())
		}
		return &raw, nil
	default:
		err = toml.Unmarshal(data, &tree)
	}
	if err != nil {
		return nil, zerr.Wrap(domain.ErrManifestParseFailed, err.Error())
	}

	// Funnel through the JSON model so the strict field checks apply to
	// every input format.
	encoded, err := json.Marshal(tree)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrManifestParseFailed, err.Error())
	}
	var raw domain.RawManifest
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}
