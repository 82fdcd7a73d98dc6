package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// MemoryCache is an ephemeral, thread-safe cache backed by a sync.Map. Each
// key is written at most once, so concurrent access never contends on the
// same entry; sync.Map fits this stable-key, write-once pattern well.
type MemoryCache struct {
	entries sync.Map // Key -> cty.Value
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *MemoryCache {
	return &MemoryCache{}
}

// Has implements Cache.
func (c *MemoryCache) Has(ctx context.Context, key Key) (bool, error) {
	_, ok := c.entries.Load(key)
	return ok, nil
}

// Get implements Cache.
func (c *MemoryCache) Get(ctx context.Context, key Key) (cty.Value, bool, error) {
	v, ok := c.entries.Load(key)
	if !ok {
		return cty.NilVal, false, nil
	}
	return v.(cty.Value), true, nil
}

// Put implements Cache. The write-once guard uses LoadOrStore so two racing
// writers cannot both succeed.
func (c *MemoryCache) Put(ctx context.Context, key Key, value cty.Value) error {
	if _, loaded := c.entries.LoadOrStore(key, value); loaded {
		return fmt.Errorf("step %q is already cached for fingerprint %s, will not overwrite", key.Step, key.Fingerprint)
	}
	return nil
}
