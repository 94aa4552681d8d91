package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[[]string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[[]string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheGetSet(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)

	_, ok := c.Get("categories")
	assert.False(t, ok)

	c.Set("categories", []string{"food", "rent"})
	got, ok := c.Get("categories")
	assert.True(t, ok)
	assert.Equal(t, []string{"food", "rent"}, got)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Set("k", []string{"a"})

	clock.advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", nil)
	c.Set("b", nil)

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Set("c", nil)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
}

func TestLRUCacheZeroTTLDisablesCaching(t *testing.T) {
	c, _ := newTestCache(2, 0)
	c.Set("a", []string{"x"})
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCachePurgeAndDelete(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("a", nil)
	c.Set("b", nil)

	c.Delete("a")
	assert.Equal(t, 1, c.Size())

	c.Purge()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("b")
	assert.False(t, ok)
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Set("old", nil)
	clock.advance(30 * time.Second)
	c.Set("new", nil)
	clock.advance(45 * time.Second)

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Minute))
	m.Stop()
	m.Stop()
}

func TestManagerSweepsRegisteredCaches(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Set("a", nil)
	clock.advance(2 * time.Minute)

	m := NewManager()
	m.Register(c)
	assert.Equal(t, 1, m.sweep())

	m.StartCleanup(time.Hour)
	m.Stop()
}
