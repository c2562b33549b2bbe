// Package storage defines the object-storage transport used to move model
// artifacts between the local filesystem and a durable object store, addressed
// by the storage URI recorded in the registry.
//
// New backends are added by implementing the Storage interface and registering
// with the factory via an init() function in the backend's own package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (Storage, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// The binaries import each backend with a blank import to trigger init(), so
// adding a backend requires no changes to the factory.
//
// The transport knows nothing about the registry: it consumes only the
// location string. Callers own timeouts via the supplied context; the
// transport performs no retries of its own.
package storage

import (
	"context"
	"io"
	"time"
)

// Storage is the capability interface every object-storage backend implements.
type Storage interface {
	// Upload stores the reader's bytes at the given storage path and returns
	// the upload result with size and checksum.
	Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error)

	// Download retrieves the object at the given storage path. The caller
	// must close the returned reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks whether an object is present at the given storage path.
	Exists(ctx context.Context, path string) (bool, error)

	// GetMetadata retrieves object metadata without downloading the content.
	GetMetadata(ctx context.Context, path string) (*ObjectInfo, error)
}

// UploadResult describes a completed upload.
type UploadResult struct {
	// Path is the storage path where the object was stored.
	Path string

	// Size is the object size in bytes.
	Size int64

	// Checksum is the SHA-256 hash of the object contents.
	Checksum string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Path         string
	Size         int64
	Checksum     string
	LastModified time.Time
}
