// Package minio provides a blobstore.Store on the MinIO client, for MinIO
// and other S3-compatible services such as Ceph, SeaweedFS and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "meshes/")
//	err = topomap.SaveSnapshot(ctx, m, store, "terrain")
package minio
