package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"
)

// ObjectStore is the blob-store capability the note service depends on.
// The production implementation is MinioStore; tests substitute fakes.
type ObjectStore interface {
	// Put writes size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes the blob at key. Deleting an absent key is a success.
	Delete(ctx context.Context, key string) error
	// SignGetURL returns a presigned GET URL for key, valid for ttl.
	SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// SignPutURL returns a presigned PUT URL for key, valid for ttl.
	SignPutURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// NewKey returns a fresh object key: 16 bytes from a CSPRNG, hex encoded.
// Keys must be unpredictable and unique; a collision would silently
// overwrite another note's image.
func NewKey() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
