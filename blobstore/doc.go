// Package blobstore provides storage abstraction for STL inputs and
// indexed mesh outputs.
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap support
//   - MemoryStore: in-memory store for tests
//   - s3.Store: Amazon S3 with range reads and managed transfers
//   - minio.Store: MinIO and other S3-compatible services
//
// # Reading
//
// Blobs that implement Mappable are consumed without copying. Everything
// else is fetched with ReadAll, which issues parallel ranged reads and
// honors an optional Throttle:
//
//	data, err := blobstore.ReadAll(ctx, blob, blobstore.ReadOptions{
//	    ChunkSize:   8 << 20,
//	    Concurrency: 8,
//	})
package blobstore
