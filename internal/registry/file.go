// file.go persists the registry as a single human-diffable JSON document. The
// file is the only durable store this system has; it lives in the project root
// and is meant to be committed to source control alongside the code that
// produced each artifact.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is the registry metadata file name expected at the project
// root.
const DefaultFileName = ".nexus_meta.json"

// File reads and writes a registry at a fixed filesystem path.
type File struct {
	path string
}

// NewFile returns a File bound to the given metadata path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the metadata file path this File reads and writes.
func (f *File) Path() string {
	return f.path
}

// Exists reports whether the metadata file is present on disk.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// RequireExists fails with ErrNotInitialized when no metadata file exists yet.
// Read and rollback operations use it as a precondition guard; registration is
// the only operation allowed to implicitly create the registry.
func (f *File) RequireExists() error {
	if !f.Exists() {
		return fmt.Errorf("%w: %s (run a store first, from the project root)", ErrNotInitialized, f.path)
	}
	return nil
}

// Load reads the persisted registry. A missing file yields an empty registry,
// not an error. Bytes that fail to parse as the expected structure yield an
// error wrapping ErrCorruptData; no automatic repair is attempted.
func (f *File) Load() (*Registry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read registry file %s: %w", f.path, err)
	}

	var r Registry
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptData, f.path, err)
	}
	if r.Models == nil {
		r.Models = make(map[string]map[string]VersionEntry)
	}
	if r.Latest == nil {
		r.Latest = make(map[string]string)
	}
	return &r, nil
}

// Save serializes the registry and atomically replaces the metadata file,
// creating parent directories as needed. The write goes to a temp file in the
// same directory first and is then renamed over the target, so a crash mid-save
// never leaves a half-written registry behind.
//
// Save must be called after every mutating operation; registrations that are
// never saved are lost when the process exits.
func (f *File) Save(r *Registry) error {
	// encoding/json sorts map keys, so the output is stable and diffs stay
	// confined to the entries that actually changed.
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close registry file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}
