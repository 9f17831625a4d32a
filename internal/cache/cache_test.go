package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/lexhover/internal/db"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_, ok, err := c.Get(ctx, "bail")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "bail", Entry{Definition: "Temporary release.", Source: "local"}))

	e, ok, err := c.Get(ctx, "bail")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Temporary release.", e.Definition)
	assert.Equal(t, "local", e.Source)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryOverwrite(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Set(ctx, "tort", Entry{Definition: "old"}))
	require.NoError(t, c.Set(ctx, "tort", Entry{Definition: "new"}))

	e, _, _ := c.Get(ctx, "tort")
	assert.Equal(t, "new", e.Definition)
	n, _ := c.Len(ctx)
	assert.Equal(t, 1, n)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "writ", Entry{Definition: "order"})
			_, _, _ = c.Get(ctx, "writ")
		}()
	}
	wg.Wait()

	n, _ := c.Len(ctx)
	assert.Equal(t, 1, n)
}

// setupRedis connects to the server named by LEXHOVER_TEST_REDIS_ADDR.
func setupRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("LEXHOVER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LEXHOVER_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r, err := NewRedis(ctx, RedisOptions{Addr: addr, Prefix: "lexhover:test:" + t.Name() + ":"})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedisGetSet(t *testing.T) {
	r := setupRedis(t)
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "habeas corpus")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "habeas corpus", Entry{Definition: "A writ.", Source: "dictionary+ai"}))
	defer r.client.Del(ctx, r.prefix+"habeas corpus")

	e, ok, err := r.Get(ctx, "habeas corpus")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Entry{Definition: "A writ.", Source: "dictionary+ai"}, e)

	n, err := r.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewRedis(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNewRedisWithClientDefaultsPrefix(t *testing.T) {
	r := NewRedisWithClient(nil, "", 0)
	assert.Equal(t, DefaultPrefix, r.prefix)
}

func TestSQLGetSet(t *testing.T) {
	d, err := db.OpenMemory()
	require.NoError(t, err)
	defer d.Close()

	ctx := context.Background()
	c := NewSQL(d)

	_, ok, err := c.Get(ctx, "plaintiff")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "plaintiff", Entry{Definition: "One who sues.", Source: "tavily"}))
	require.NoError(t, c.Set(ctx, "plaintiff", Entry{Definition: "A party who sues.", Source: "dictionary+ai"}))

	e, ok, err := c.Get(ctx, "plaintiff")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Entry{Definition: "A party who sues.", Source: "dictionary+ai"}, e)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBackendsSatisfyCache(t *testing.T) {
	var _ Cache = NewMemory()
	var _ Cache = (*Redis)(nil)
	var _ Cache = (*SQL)(nil)
}
