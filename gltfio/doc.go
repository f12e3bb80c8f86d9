// Package gltfio reads and writes glTF 2.0 documents.
//
// Both container forms are supported: .gltf (JSON with external or data-URI
// buffers) and .glb (binary container with a JSON chunk and a binary chunk).
// Gzip-wrapped input is detected and decompressed transparently.
//
// External buffer URIs are resolved through a blobstore.BlobStore, so the
// same reader works against a local directory, an object-storage bucket or an
// in-memory fixture. Remote fetches can be rate limited.
//
// Top-level sections the toolkit does not model (nodes, scenes, materials,
// textures, ...) are carried through byte for byte; accessor-referencing
// sections (meshes, skins, animations) are decoded into the core object graph
// and re-indexed on write, so transforms that add or dispose accessors always
// produce a consistent file.
package gltfio
