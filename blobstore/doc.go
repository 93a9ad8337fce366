// Package blobstore provides storage targets for map snapshots.
//
// Store is the interface for writing and reading snapshot blobs. A blob is
// written as one stream and becomes visible only when its WritableBlob is
// closed; Abort discards it. Readers always get the whole blob.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem, atomic writes through rename
//   - s3.Store: Amazon S3 with streaming multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Usage
//
//	store := blobstore.NewLocalStore("/var/lib/meshes")
//	if err := topomap.SaveSnapshot(ctx, m, store, "terrain"); err != nil {
//	    return err
//	}
package blobstore
