package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", []byte(`{"a":1}`), time.Minute)
	val, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), val)
}

func TestCacheEntryExpires(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 10*time.Millisecond)

	_, ok := c.Get(ctx, "k")
	require.True(t, ok, "entry must be served before its TTL elapses")

	time.Sleep(25 * time.Millisecond)

	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry must miss once its TTL has elapsed")
}

func TestCacheSetRefreshesTTL(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("old"), 10*time.Millisecond)
	c.Set(ctx, "k", []byte("new"), time.Minute)

	time.Sleep(25 * time.Millisecond)

	val, ok := c.Get(ctx, "k")
	require.True(t, ok, "rewrite must carry the new TTL")
	assert.Equal(t, []byte("new"), val)
}
