package cache_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uikit/pkg/cache"
)

func TestLRUCache_Basic(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)
		c.Put("a", 1)
		c.Put("b", 2)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get non-existent", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)
		val, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Zero(t, val)
	})

	t.Run("update existing", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)
		c.Put("a", 1)
		old, existed := c.Put("a", 2)
		assert.True(t, existed)
		assert.Equal(t, 1, old)

		val, _ := c.Get("a")
		assert.Equal(t, 2, val)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("panics on invalid capacity", func(t *testing.T) {
		assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	})
}

func TestLRUCache_Eviction(t *testing.T) {
	c := cache.NewLRUCache[string, int](3)
	var evicted []string
	c.SetEvictCallback(func(key string, _ int) { evicted = append(evicted, key) })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Get("a") // "b" becomes the oldest
	c.Put("d", 4)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestLRUCache_GetOrLoad(t *testing.T) {
	c := cache.NewLRUCache[string, string](2)
	calls := 0
	load := func() (string, error) {
		calls++
		return "loaded", nil
	}

	v, err := c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)

	v, err = c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err = c.GetOrLoad("bad", func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	_, ok := c.Get("bad")
	assert.False(t, ok, "failed loads must not be cached")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 2, stats.Capacity)
}

func TestLRUCache_RemoveFunc(t *testing.T) {
	c := cache.NewLRUCache[string, int](10)
	c.Put("markup://ui:a", 1)
	c.Put("markup://ui:b", 2)
	c.Put("go://x.C", 3)

	n := c.RemoveFunc(func(k string, _ int) bool { return strings.HasPrefix(k, "markup://") })
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, c.Len())

	v, ok := c.Remove("go://x.C")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = c.Remove("go://x.C")
	assert.False(t, ok)
}

func TestLRUCache_Clear(t *testing.T) {
	c := cache.NewLRUCache[int, int](5)
	count := 0
	c.SetEvictCallback(func(int, int) { count++ })
	for i := range 4 {
		c.Put(i, i)
	}
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 4, count)
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := cache.NewLRUCache[int, int](50)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				c.Put(g*1000+i, i)
				c.Get(g*1000 + i)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
