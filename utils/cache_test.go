package utils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_, ok := c.Get(ctx, "missing")
	require.False(t, ok)

	c.Set(ctx, "cache:posts:/posts", []byte("a"), time.Minute)
	c.Set(ctx, "cache:posts:/posts/1", []byte("b"), time.Minute)
	c.Set(ctx, "cache:users:/users", []byte("c"), 0)

	v, ok := c.Get(ctx, "cache:posts:/posts")
	require.True(t, ok)
	require.Equal(t, []byte("a"), v)

	c.InvalidatePrefix(ctx, "cache:posts:")
	_, ok = c.Get(ctx, "cache:posts:/posts")
	require.False(t, ok)
	_, ok = c.Get(ctx, "cache:posts:/posts/1")
	require.False(t, ok)
	_, ok = c.Get(ctx, "cache:users:/users")
	require.True(t, ok)

	// zero ttl falls back to the default
	now = now.Add(defaultCacheTTL)
	_, ok = c.Get(ctx, "cache:users:/users")
	require.False(t, ok)
}

func TestMemoryCacheSweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	for i := 0; i < 500; i++ {
		c.Set(ctx, fmt.Sprintf("cache:posts:/posts?page=%d", i), []byte("x"), time.Minute)
	}
	require.Len(t, c.items, 500)

	now = now.Add(2 * time.Minute)
	c.Set(ctx, "cache:posts:/posts", []byte("fresh"), time.Minute)
	require.Len(t, c.items, 1)

	v, ok := c.Get(ctx, "cache:posts:/posts")
	require.True(t, ok)
	require.Equal(t, []byte("fresh"), v)
}

func TestMemoryCacheBounded(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	for i := 0; i < maxMemoryEntries+50; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), []byte("x"), time.Hour)
	}
	require.Len(t, c.items, maxMemoryEntries)

	// existing keys can still be refreshed when full
	c.Set(ctx, "k0", []byte("y"), time.Hour)
	v, ok := c.Get(ctx, "k0")
	require.True(t, ok)
	require.Equal(t, []byte("y"), v)
}
