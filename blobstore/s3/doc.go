// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "meshes/")
//	err = topomap.SaveSnapshot(ctx, m, store, "terrain")
//
// # Features
//
//   - Streaming uploads, multipart for large snapshots
//   - Aborted uploads never create the object
//   - CRC32-C checksums on upload
//   - Automatic pagination for listing
package s3
