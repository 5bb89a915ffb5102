// Package lockstore implements lockfile persistence as pretty-printed
// JSON with atomic writes.
package lockstore

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pindown/pindown/internal/core/domain"
	"github.com/pindown/pindown/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.LockfileStore.
type Store struct{}

// NewStore creates a new lockfile Store.
func NewStore() ports.LockfileStore {
	return &Store{}
}

// Read loads and validates the lockfile at path. A missing file is not an
// error; it returns nil, nil.
func (s *Store) Read(path string) (*domain.Lockfile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrLockfileReadFailed, err.Error()),
			"file", path,
		)
	}

	var lockfile domain.Lockfile
	if err := json.Unmarshal(data, &lockfile); err != nil {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrInvalidLockfile, err.Error()),
			"file", path,
		)
	}
	if err := lockfile.Validate(); err != nil {
		return nil, zerr.With(err, "file", path)
	}
	return &lockfile, nil
}

// Write persists the lockfile to path. The bytes go to a temporary file
// in the same directory first and are moved into place with a rename, so
// a crashed run never leaves a truncated lockfile behind.
func (s *Store) Write(path string, lockfile *domain.Lockfile) error {
	data, err := Encode(lockfile)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error())
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error())
	}
	return nil
}

// Encode renders a lockfile to its canonical on-disk form: two-space
// indented JSON with sorted keys and a trailing newline.
func Encode(lockfile *domain.Lockfile) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lockfile); err != nil {
		return nil, zerr.Wrap(domain.ErrLockfileWriteFailed, err.Error())
	}
	return buf.Bytes(), nil
}
