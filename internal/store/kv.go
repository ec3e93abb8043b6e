package store

import "context"

// KV is the persistence port the Store writes through. Implementations
// must make Set durable before returning: once Set returns nil the value
// survives a process restart.
//
// Implemented by SQLiteKV (production) and MemKV (tests).
type KV interface {
	// Get returns the value stored under key. The second return is false
	// if the key has never been written.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set durably stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases backend resources. The KV is unusable afterwards.
	Close() error
}
