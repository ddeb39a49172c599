// Package kv defines the key-value collaborator contract shared by the
// credential, session, basket and product-cache layers. Implementations
// are Redis (production) and an in-memory store (tests). Expiry is
// enforced by the backing store itself; callers never run sweeps.
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key, field or hash does not exist.
	ErrNotFound = errors.New("kv: key not found")

	// ErrUnavailable marks connectivity failures to the backing store.
	ErrUnavailable = errors.New("kv: backend unavailable")
)

// Store abstracts the key-value operations the core needs. All
// operations are atomic per key; no cross-operation transactions.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)

	// ListPush prepends; index 0 is always the most recent element.
	ListPush(ctx context.Context, key string, value []byte) error
	ListTrim(ctx context.Context, key string, start, stop int64) error
	ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	// ListRemove removes up to count occurrences of value, scanning
	// from the head, and reports how many were removed.
	ListRemove(ctx context.Context, key string, count int64, value []byte) (int64, error)
	ListLen(ctx context.Context, key string) (int64, error)

	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL reports the remaining lifetime of key. found is false when
	// the key does not exist; a zero duration with found=true means
	// the key has no expiry.
	TTL(ctx context.Context, key string) (ttl time.Duration, found bool, err error)
	Delete(ctx context.Context, keys ...string) error

	// Scan walks keys matching a glob pattern incrementally. A zero
	// returned cursor means the iteration is complete.
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)

	Ping(ctx context.Context) error
	Close() error
}
