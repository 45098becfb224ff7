package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

// BlobStore opens immutable blobs such as uploaded STL files.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
}

// Putter writes whole blobs atomically.
type Putter interface {
	Put(ctx context.Context, name string, data []byte) error
}

// Store is a BlobStore that can also write blobs.
type Store interface {
	BlobStore
	Putter
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	Close() error
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs whose contents are already
// addressable in memory.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed and must not be modified.
	Bytes() ([]byte, error)
}

// Fetcher is an optional interface for Blobs with a native whole-object
// download path that beats generic ranged reads.
type Fetcher interface {
	ReadAll(ctx context.Context) ([]byte, error)
}
