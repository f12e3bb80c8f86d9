// Package minio provides a BlobStore implementation using the MinIO client.
//
// Use this for MinIO itself or any S3-compatible storage (Ceph, Garage,
// SeaweedFS) without pulling AWS credential machinery into the process:
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	store := minioblob.NewStore(client, "assets", "scenes/")
package minio
