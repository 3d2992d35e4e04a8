// Package memo is the two tier result cache: an in-process LRU with TTL in
// front of an optional shared store.
package memo

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/dxf2gml/internal/cache"
	"github.com/mohammed-shakir/dxf2gml/internal/core/observability"
)

const (
	tierL1 = "l1"
	tierL2 = "l2"
)

type Config struct {
	Size      int
	TTL       time.Duration
	OpTimeout time.Duration
}

type Cache struct {
	l1  *expirable.LRU[string, []byte]
	l2  cache.Interface
	cfg Config
	log *slog.Logger
}

// New builds a cache. l2 may be nil for a process-local cache.
func New(cfg Config, l2 cache.Interface, log *slog.Logger) *Cache {
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 250 * time.Millisecond
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		l1:  expirable.NewLRU[string, []byte](cfg.Size, nil, cfg.TTL),
		l2:  l2,
		cfg: cfg,
		log: log,
	}
}

// Get looks in L1 then L2. An L2 hit is copied into L1. Store errors count
// as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.l1.Get(key); ok {
		observability.IncCacheHit(tierL1)
		return v, true
	}
	observability.IncCacheMiss(tierL1)
	if c.l2 == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()
	v, ok, err := c.l2.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "shared cache get failed", "key", key, "err", err)
		observability.IncCacheMiss(tierL2)
		return nil, false
	}
	if !ok {
		observability.IncCacheMiss(tierL2)
		return nil, false
	}
	observability.IncCacheHit(tierL2)
	c.l1.Add(key, v)
	return v, true
}

// Set writes both tiers.
func (c *Cache) Set(ctx context.Context, key string, val []byte) {
	c.l1.Add(key, val)
	if c.l2 == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()
	if err := c.l2.Set(ctx, key, val, c.cfg.TTL); err != nil {
		c.log.WarnContext(ctx, "shared cache set failed", "key", key, "err", err)
	}
}

// Del drops key from both tiers.
func (c *Cache) Del(ctx context.Context, key string) {
	c.l1.Remove(key)
	if c.l2 == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()
	if err := c.l2.Del(ctx, key); err != nil {
		c.log.WarnContext(ctx, "shared cache del failed", "key", key, "err", err)
	}
}

// Len is the number of live L1 entries.
func (c *Cache) Len() int { return c.l1.Len() }

// Purge empties L1 only.
func (c *Cache) Purge() { c.l1.Purge() }
