package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()
	key := Key{Step: "train", Fingerprint: "abc123"}
	val := cty.ObjectVal(map[string]cty.Value{
		"loss": cty.NumberFloatVal(0.42),
	})

	has, err := c.Has(ctx, key)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, c.Put(ctx, key, val))

	has, err = c.Has(ctx, key)
	require.NoError(t, err)
	require.True(t, has)

	got, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	require.True(t, got.RawEquals(val))
}

func TestMemoryCacheMissOnDifferentFingerprint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Put(ctx, Key{Step: "train", Fingerprint: "old"}, cty.NumberIntVal(1)))

	_, hit, err := c.Get(ctx, Key{Step: "train", Fingerprint: "new"})
	require.NoError(t, err)
	require.False(t, hit)
}

func TestMemoryCacheWriteOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()
	key := Key{Step: "train", Fingerprint: "abc123"}

	require.NoError(t, c.Put(ctx, key, cty.NumberIntVal(1)))
	err := c.Put(ctx, key, cty.NumberIntVal(2))
	require.Error(t, err)

	// The original value survives the rejected overwrite.
	got, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	require.True(t, got.RawEquals(cty.NumberIntVal(1)))
}
