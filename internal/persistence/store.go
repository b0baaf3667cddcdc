package persistence

import (
	"context"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// DocumentStore persists one opaque JSON body per state key.
type DocumentStore interface {
	// Get returns the stored body, or ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the body stored under key.
	Put(ctx context.Context, key string, body []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Digest returns the hex encoded BLAKE3-256 digest of body.
func Digest(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// VerifyDigest reports ErrCorrupt when body does not hash to digest.
func VerifyDigest(body []byte, digest string) error {
	if Digest(body) != digest {
		return ErrCorrupt
	}
	return nil
}
