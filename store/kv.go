// Package store persists panel records in an external key/value
// service. Values are JSON documents. Read-modify-write sequences on
// list records can still race under concurrent writers; multi-location
// updates at least commit atomically through Apply so instance
// visibility stays consistent across query paths.
package store

import "context"

// Write is one entry in an atomic batch: an upsert, or a deletion
// when Remove is set.
type Write struct {
	Key    string
	Value  any
	Remove bool
}

// KV is the persistence contract: JSON values under string keys.
// Get reports found=false for a missing key and leaves out untouched.
// Apply commits every write or none of them.
type KV interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Apply(ctx context.Context, writes []Write) error
}
