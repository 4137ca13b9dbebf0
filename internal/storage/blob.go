// Package storage persists small string blobs by key. It backs the favorites
// and recent-search ledger and the local account store.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// BlobStore is a synchronous key to string store.
type BlobStore interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// ErrInvalidKey is returned for keys that cannot be stored.
var ErrInvalidKey = errors.New("invalid key")

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
