// Package kvstore provides a minimal persistent string key-value store
// abstraction with Redis, file, and in-memory implementations.
package kvstore

import "context"

// Store is a persistent string-keyed, string-valued store. Implementations
// must be safe for concurrent use.
//
// Get reports ok=false when the key is absent; absence is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
