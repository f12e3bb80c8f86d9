package gltfio

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/xlsfs/glTF-Transform/blobstore"
)

// resolver loads buffer contents by URI. The empty URI addresses the GLB
// binary chunk; data: URIs decode inline; everything else goes through the
// blob store, optionally rate limited (remote stores bill per request and
// documents can reference dozens of buffers).
type resolver struct {
	store   blobstore.BlobStore
	limiter *rate.Limiter
	bin     []byte
}

func (r *resolver) resolve(ctx context.Context, uri string) ([]byte, error) {
	if uri == "" {
		if r.bin == nil {
			return nil, fmt.Errorf("gltfio: buffer has no URI and no binary chunk is present")
		}
		return r.bin, nil
	}

	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}

	if r.store == nil {
		return nil, fmt.Errorf("gltfio: no blob store configured for external buffer %q", uri)
	}

	name, err := url.PathUnescape(uri)
	if err != nil {
		return nil, fmt.Errorf("gltfio: invalid buffer URI %q: %w", uri, err)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	blob, err := r.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("gltfio: open buffer %q: %w", uri, err)
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("gltfio: read buffer %q: %w", uri, err)
	}
	return data, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, fmt.Errorf("gltfio: malformed data URI")
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("gltfio: unsupported data URI encoding %q", meta)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("gltfio: decode data URI: %w", err)
	}
	return data, nil
}

func encodeDataURI(data []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
}
