// Package kvstore is the key-value collaborator used to replicate sessions and
// elevators: put, get and get-by-prefix over opaque serialized records.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a string-keyed record store. Implementations are safe for concurrent use.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// GetByPrefix returns every value whose key starts with prefix, ordered by key.
	GetByPrefix(ctx context.Context, prefix string) ([][]byte, error)
}

// Drivers accepted by configuration.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)
