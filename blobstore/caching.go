package blobstore

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/xlsfs/glTF-Transform/internal/hash"
)

// CachingStore wraps a (typically remote) BlobStore with a local disk cache.
// Cached entries are lz4-compressed; geometry buffers compress well and the
// decompression cost is small next to a bucket round trip.
//
// The cache key is derived from the blob name only, so it assumes immutable
// remote blobs. Put invalidates the local entry before writing through.
type CachingStore struct {
	inner BlobStore
	dir   string
}

// NewCachingStore creates a CachingStore writing cache entries under dir.
func NewCachingStore(inner BlobStore, dir string) *CachingStore {
	return &CachingStore{inner: inner, dir: dir}
}

func (s *CachingStore) cachePath(name string) string {
	sum := hash.CRC32C([]byte(name))
	var buf [4]byte
	buf[0] = byte(sum >> 24)
	buf[1] = byte(sum >> 16)
	buf[2] = byte(sum >> 8)
	buf[3] = byte(sum)
	return filepath.Join(s.dir, hex.EncodeToString(buf[:])+".lz4")
}

// Open returns the cached blob when present, otherwise fetches from the inner
// store and populates the cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	path := s.cachePath(name)
	if data, err := readCompressed(path); err == nil {
		return &memoryBlob{data: data}, nil
	}

	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data, err := ReadAll(ctx, b)
	if err != nil {
		return nil, err
	}
	// Cache population is best-effort; a failed write still serves the blob.
	_ = writeCompressed(path, data)
	return &memoryBlob{data: data}, nil
}

// Put invalidates the cache entry and writes through to the inner store.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := os.Remove(s.cachePath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

func readCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(lz4.NewReader(f))
}

func writeCompressed(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
