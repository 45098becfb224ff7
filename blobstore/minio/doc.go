// Package minio provides a blobstore.Store backed by the MinIO client.
//
// It works with MinIO and other S3-compatible services (Ceph, Garage,
// SeaweedFS) without pulling in the AWS SDK configuration chain.
//
//	client, err := minio.NewClient("localhost:9000", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := minio.NewStore(client, "meshes", "incoming/")
//
// NewClient reads credentials from MINIO_ROOT_USER/MINIO_ROOT_PASSWORD
// (or MINIO_ACCESS_KEY/MINIO_SECRET_KEY) and falls back to the AWS
// environment variables.
package minio
