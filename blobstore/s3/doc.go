// Package s3 provides a BlobStore implementation backed by AWS S3.
//
// Reads use ranged GetObject calls so only the accessor byte ranges a
// document actually touches are transferred; writes stream through the
// s3/manager uploader.
//
//	store, err := s3.NewFromConfig(ctx, "assets-bucket", "scenes/")
//	doc, err := gltfio.NewReader(func(o *gltfio.ReaderOptions) {
//	    o.Store = store
//	}).ReadFile(ctx, "model.gltf")
package s3
