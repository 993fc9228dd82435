// Package ephemeral holds the token-keyed configuration blobs that drivers
// hand off to the bootstrap file server for large-payload Configure paths.
package ephemeral

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// TTL is how long a blob survives after its last write. ristretto does not
// refresh an item's expiry on Get, so this is "10 minutes from last write"
// rather than "from last read".
const TTL = 10 * time.Minute

// Store is an in-memory, TTL-bounded cache of adoption blobs keyed by an
// opaque token. The bootstrap file server serves a blob's contents once at
// "adopt/<token>" and lets it expire rather than deleting it eagerly, since
// a device may re-fetch the same file after a truncated TFTP transfer.
type Store struct {
	cache *ristretto.Cache
}

// NewStore returns an empty Store sized for a few hundred in-flight blobs.
func NewStore() (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache}, nil
}

// Put stores blob under token, costed by its byte length, and returns once
// the write is visible to subsequent Gets.
func (s *Store) Put(token string, blob []byte) {
	s.cache.SetWithTTL(token, blob, int64(len(blob)), TTL)
	s.cache.Wait()
}

// Get returns the blob for token and whether it was present and unexpired.
func (s *Store) Get(token string) ([]byte, bool) {
	val, ok := s.cache.Get(token)
	if !ok {
		return nil, false
	}
	blob, ok := val.([]byte)
	return blob, ok
}

// Delete removes token's blob immediately, e.g. after a device confirms
// adoption succeeded.
func (s *Store) Delete(token string) {
	s.cache.Del(token)
}
