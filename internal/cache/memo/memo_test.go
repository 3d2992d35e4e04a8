package memo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/dxf2gml/internal/cache/redisstore"
)

type mapStore struct {
	mu   sync.Mutex
	m    map[string][]byte
	gets int
	err  error
}

func newMapStore() *mapStore { return &mapStore{m: map[string][]byte{}} }

func (s *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.err != nil {
		return nil, false, s.err
	}
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.m[key] = val
	return nil
}

func (s *mapStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return s.err
}

func TestLocalOnly_SetGet(t *testing.T) {
	c := New(Config{Size: 2}, nil, nil)
	ctx := context.Background()

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	c.Set(ctx, "a", []byte("1"))
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	c.Set(ctx, "b", []byte("2"))
	c.Set(ctx, "c", []byte("3"))
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok, "oldest entry evicted")
}

func TestL2Hit_PromotesToL1(t *testing.T) {
	l2 := newMapStore()
	l2.m["k"] = []byte("v")
	c := New(Config{}, l2, nil)
	ctx := context.Background()

	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(v))
	assert.Equal(t, 1, l2.gets)

	_, ok = c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 1, l2.gets, "second read served by L1")
}

func TestStoreErrors_AreMisses(t *testing.T) {
	l2 := newMapStore()
	l2.err = errors.New("down")
	c := New(Config{}, l2, nil)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))
	v, ok := c.Get(ctx, "k")
	require.True(t, ok, "L1 still serves after a failed L2 write")
	assert.Equal(t, "v", string(v))

	c.Purge()
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestDel_BothTiers(t *testing.T) {
	l2 := newMapStore()
	c := New(Config{}, l2, nil)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))
	c.Del(ctx, "k")
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, l2.m)
}

func TestTTL_L1Expires(t *testing.T) {
	c := New(Config{TTL: 20 * time.Millisecond}, nil, nil)
	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"))
	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestRedisBacked_SharedAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc, err := redisstore.New(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	ctx := context.Background()
	a := New(Config{TTL: time.Minute}, rc, nil)
	b := New(Config{TTL: time.Minute}, rc, nil)

	a.Set(ctx, "shared", []byte("gml"))
	v, ok := b.Get(ctx, "shared")
	require.True(t, ok)
	assert.Equal(t, "gml", string(v))

	ttl := mr.TTL("shared")
	assert.Equal(t, time.Minute, ttl)
}
