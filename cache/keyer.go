package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Keyer generates deterministic cache keys for API reads.
//
// Contract:
// - Determinism: the same coordinates must always produce the same key.
// - Collision-freedom: distinct coordinates must never share a key, even
//   when individual parts contain the separator.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for a resource kind and its coordinates
	// (owner, repo, number, path, ref and the like, in call order).
	Key(resource string, coords ...string) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: cache:<resource>:<hash>
// where hash is the first 16 characters of SHA-256 over the length-prefixed
// coordinates.
func (k *DefaultKeyer) Key(resource string, coords ...string) (string, error) {
	if strings.TrimSpace(resource) == "" {
		return "", ErrInvalidKey
	}

	// Length-prefix each part so ("ab","c") and ("a","bc") never collide.
	var b strings.Builder
	for _, part := range coords {
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}

	hash := sha256.Sum256([]byte(b.String()))
	hashStr := hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars

	return fmt.Sprintf("cache:%s:%s", resource, hashStr), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
