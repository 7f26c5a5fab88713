package cache

import (
	"context"
	"sync"
	"time"

	"AlphaRefinery/internal/domain/models"
)

type entry struct {
	infos []models.StockInfo
	exp   time.Time
}

// MemoryStockCache is the in-process fallback used when Redis is disabled.
type MemoryStockCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	ttl time.Duration
}

func NewMemoryStockCache(ttl time.Duration) *MemoryStockCache {
	return &MemoryStockCache{m: make(map[string]entry), ttl: ttl}
}

func (c *MemoryStockCache) Get(_ context.Context, market string) ([]models.StockInfo, bool) {
	c.mu.RLock()
	e, ok := c.m[stockKey(market)]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, stockKey(market))
		c.mu.Unlock()
		return nil, false
	}
	return e.infos, true
}

func (c *MemoryStockCache) Set(_ context.Context, market string, infos []models.StockInfo) {
	var exp time.Time
	if c.ttl > 0 {
		exp = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.m[stockKey(market)] = entry{infos: infos, exp: exp}
	c.mu.Unlock()
}

func (c *MemoryStockCache) Invalidate(_ context.Context, market string) {
	c.mu.Lock()
	delete(c.m, stockKey(market))
	c.mu.Unlock()
}
