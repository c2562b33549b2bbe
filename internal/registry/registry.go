// Package registry implements the versioned model-artifact registry: the
// durable mapping of (model name, commit hash) to an object-storage location,
// plus a mutable per-model "latest" pointer.
//
// The registry is a pure in-memory data structure with no network I/O. It is
// loaded fully from a single JSON file at process start (see File) and written
// back as a full-file rewrite after each mutation. Each short-lived command
// constructs one Registry value, performs one logical operation, saves, and
// discards it; there is no ambient or static registry state.
//
// Concurrency across processes is not arbitrated here: if two operators mutate
// the same registry file concurrently, the last save wins. Updates are expected
// to be serialized by the source-control workflow (commit and push the metadata
// file after each mutation).
package registry

import (
	"fmt"
	"time"
)

// LatestSelector is the version selector that resolves through a model's
// latest pointer instead of naming an explicit commit hash.
const LatestSelector = "latest"

// timestampLayout is the fixed-width, lexicographically sortable form used for
// version timestamps in the metadata file.
const timestampLayout = "2006-01-02T15:04:05.000000"

// now is swapped out by tests that need deterministic timestamps.
var now = time.Now

// VersionEntry records the facts captured when one artifact version was
// registered. Entries are immutable once created; re-registering the same
// (model, commit) pair replaces the entry wholesale, it never edits one.
type VersionEntry struct {
	StorageURI    string `json:"storage_uri"`
	CommitHash    string `json:"commit_hash"`
	FileSize      int64  `json:"file_size"`
	FileExtension string `json:"file_extension"`
	Timestamp     string `json:"timestamp"`
}

// Registry is the root persisted object: every model name maps to its set of
// registered versions keyed by commit hash, and Latest holds the per-model
// pointer to the commit currently considered current.
//
// Invariant: a latest pointer, when present, always references a commit hash
// that exists in that model's version set. Register and SetLatest are the only
// mutators and both preserve it.
type Registry struct {
	Models map[string]map[string]VersionEntry `json:"models"`
	Latest map[string]string                  `json:"latest"`
}

// New returns an empty registry with initialized maps.
func New() *Registry {
	return &Registry{
		Models: make(map[string]map[string]VersionEntry),
		Latest: make(map[string]string),
	}
}

// Register inserts or overwrites the version entry for (modelName, commitHash)
// with the given facts and a freshly captured timestamp, and unconditionally
// repoints the model's latest pointer at commitHash.
//
// Registering the same commit hash twice is not an error: the second call wins
// entirely, which makes re-running a failed store command safe. The mutation is
// in-memory only; the caller persists it with File.Save.
func (r *Registry) Register(modelName, commitHash, storageURI string, fileSize int64, fileExtension string) error {
	if modelName == "" {
		return fmt.Errorf("%w: model name is required", ErrInvalidArgument)
	}
	if commitHash == "" {
		return fmt.Errorf("%w: commit hash is required", ErrInvalidArgument)
	}
	if fileSize < 0 {
		return fmt.Errorf("%w: file size must be non-negative, got %d", ErrInvalidArgument, fileSize)
	}

	if r.Models == nil {
		r.Models = make(map[string]map[string]VersionEntry)
	}
	versions, ok := r.Models[modelName]
	if !ok {
		versions = make(map[string]VersionEntry)
		r.Models[modelName] = versions
	}

	versions[commitHash] = VersionEntry{
		StorageURI:    storageURI,
		CommitHash:    commitHash,
		FileSize:      fileSize,
		FileExtension: fileExtension,
		Timestamp:     now().Format(timestampLayout),
	}

	if r.Latest == nil {
		r.Latest = make(map[string]string)
	}
	r.Latest[modelName] = commitHash

	return nil
}

// Resolve maps a version selector to a storage location.
//
// When selector is LatestSelector, modelName is required (ErrInvalidArgument
// otherwise) and resolution follows the model's latest pointer. When selector
// is an explicit commit hash, a non-empty modelName selects an exact lookup;
// an empty modelName scans every model's version set and returns the first
// match in map iteration order; if the same hash was registered under two
// models, which one wins is unspecified.
//
// A miss is not an error: Resolve returns found == false so callers can render
// a precise "no latest model" or "artifact not found" message. Errors are
// reserved for contract violations.
func (r *Registry) Resolve(selector, modelName string) (uri string, found bool, err error) {
	if selector == "" {
		return "", false, fmt.Errorf("%w: version selector is required", ErrInvalidArgument)
	}

	commitHash := selector
	if selector == LatestSelector {
		if modelName == "" {
			return "", false, fmt.Errorf("%w: model name is required when resolving %q", ErrInvalidArgument, LatestSelector)
		}
		pointer, ok := r.Latest[modelName]
		if !ok {
			return "", false, nil
		}
		commitHash = pointer
	}

	if modelName != "" {
		entry, ok := r.Models[modelName][commitHash]
		if !ok {
			return "", false, nil
		}
		return entry.StorageURI, true, nil
	}

	for _, versions := range r.Models {
		if entry, ok := versions[commitHash]; ok {
			return entry.StorageURI, true, nil
		}
	}
	return "", false, nil
}

// SetLatest repoints the model's latest pointer at an already-registered
// version. It never creates or modifies version entries. The registry is left
// untouched when either precondition fails.
func (r *Registry) SetLatest(modelName, commitHash string) error {
	versions, ok := r.Models[modelName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, modelName)
	}
	if _, ok := versions[commitHash]; !ok {
		return fmt.Errorf("%w: %q under model %q", ErrUnknownVersion, commitHash, modelName)
	}

	if r.Latest == nil {
		r.Latest = make(map[string]string)
	}
	r.Latest[modelName] = commitHash
	return nil
}

// Artifact is one flattened row produced by List: a version entry joined with
// its model name and whether it is the model's current latest version.
type Artifact struct {
	ModelName     string
	CommitHash    string
	StorageURI    string
	FileSize      int64
	FileExtension string
	Timestamp     string
	IsLatest      bool
}

// List returns one record per registered (model, commit) pair. Ordering is the
// iteration order of the underlying maps and therefore unspecified; callers
// that need a deterministic display order must sort.
func (r *Registry) List() []Artifact {
	var artifacts []Artifact
	for modelName, versions := range r.Models {
		latest := r.Latest[modelName]
		for commitHash, entry := range versions {
			artifacts = append(artifacts, Artifact{
				ModelName:     modelName,
				CommitHash:    commitHash,
				StorageURI:    entry.StorageURI,
				FileSize:      entry.FileSize,
				FileExtension: entry.FileExtension,
				Timestamp:     entry.Timestamp,
				IsLatest:      commitHash == latest,
			})
		}
	}
	return artifacts
}
