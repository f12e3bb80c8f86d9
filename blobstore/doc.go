// Package blobstore abstracts access to external scene resources.
//
// A .gltf document may reference its geometry buffers by URI: sibling .bin
// files on disk, objects in a bucket, or anything else addressable by name.
// The reader resolves those URIs through a BlobStore; the writer puts emitted
// buffers back through the same interface.
//
// Implementations:
//
//   - LocalStore: filesystem-backed, memory-mapped reads
//   - MemoryStore: in-memory, for tests
//   - CachingStore: wraps a remote store with an lz4-compressed disk cache
//   - s3.Store: AWS S3 (aws-sdk-go-v2)
//   - minio.Store: MinIO and other S3-compatible storage
package blobstore
