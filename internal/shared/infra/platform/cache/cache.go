package cache

import (
	"context"
)

// Cache is the port for a generic key-value cache.
type Cache interface {
	// Get tries to populate 'dest' (a pointer) with the value stored
	// under 'key'. Returns (true, nil) on a hit, (false, nil) on a miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializes and stores the value with a TTL in seconds.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	// Delete removes the key from the cache.
	Delete(ctx context.Context, key string) error
}
