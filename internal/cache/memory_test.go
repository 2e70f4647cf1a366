package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCache_ExpiredReadKeepsNewerSet 过期删除不能误删并发写入的新值
func TestMemoryCache_ExpiredReadKeepsNewerSet(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	now := base
	c := NewMemoryCache(time.Minute).(*memoryCache)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "summary", []byte("old")))

	now = base.Add(2 * time.Minute)
	var once sync.Once
	c.now = func() time.Time {
		// 第一次取时间发生在读锁释放之后,此时另一个请求写入新值
		once.Do(func() {
			c.now = func() time.Time { return now }
			require.NoError(t, c.Set(ctx, "summary", []byte("fresh")))
		})
		return now
	}

	_, ok, err := c.Get(ctx, "summary")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := c.Get(ctx, "summary")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", string(v))
}

// TestMemoryCache_SetSweepsExpired 写入时清理过期条目
func TestMemoryCache_SetSweepsExpired(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	now := base
	c := NewMemoryCache(time.Minute).(*memoryCache)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "summary:1", []byte("a")))
	_, err := c.Incr(ctx, "generation")
	require.NoError(t, err)

	now = base.Add(2 * time.Minute)
	require.NoError(t, c.Set(ctx, "summary:2", []byte("b")))

	assert.Len(t, c.entries, 2)
	assert.Contains(t, c.entries, "summary:2")
	assert.Contains(t, c.entries, "generation")
}
