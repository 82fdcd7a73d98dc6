// Package cache defines the step result cache: a mapping from (step name,
// argument fingerprint) to the step's computed result. Entries are written
// once per run; a later run re-executes a step only when its fingerprint
// changed or it never succeeded.
package cache

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Key identifies one cache entry. The fingerprint covers the step's fully
// resolved arguments, so a stale entry for the same step name is simply never
// matched.
type Key struct {
	Step        string
	Fingerprint string
}

// Cache is the storage contract. Implementations must be safe for concurrent
// use; the executor guarantees that no two writers target the same key within
// a run.
type Cache interface {
	// Has reports whether a result for this exact key is stored.
	Has(ctx context.Context, key Key) (bool, error)
	// Get returns the stored result and whether it was present.
	Get(ctx context.Context, key Key) (cty.Value, bool, error)
	// Put stores a result. Storing a key that already holds a result is an
	// error: results are immutable within a fingerprint.
	Put(ctx context.Context, key Key, value cty.Value) error
}
