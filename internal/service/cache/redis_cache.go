package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"AlphaRefinery/internal/domain/models"
	applogger "AlphaRefinery/pkg/logger"
)

// RedisStockCache shares the stock-list cache across refinery replicas.
// Cache failures degrade to a warehouse read, never to a request error.
type RedisStockCache struct {
	cli *redis.Client
	ttl time.Duration
	l   *applogger.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisStockCache(cfg RedisConfig) *RedisStockCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisStockCache{cli: rdb, ttl: cfg.TTL}
}

// SetLogger injects a structured logger.
func (c *RedisStockCache) SetLogger(l *applogger.Logger) { c.l = l }

func (c *RedisStockCache) Get(ctx context.Context, market string) ([]models.StockInfo, bool) {
	b, err := c.cli.Get(ctx, stockKey(market)).Bytes()
	if err != nil {
		if err != redis.Nil && c.l != nil {
			c.l.Warn("redis stock cache get error",
				applogger.String("market", market),
				applogger.Error(err),
			)
		}
		return nil, false
	}
	var infos []models.StockInfo
	if err := json.Unmarshal(b, &infos); err != nil {
		return nil, false
	}
	return infos, true
}

func (c *RedisStockCache) Set(ctx context.Context, market string, infos []models.StockInfo) {
	b, err := json.Marshal(infos)
	if err != nil {
		return
	}
	if err := c.cli.Set(ctx, stockKey(market), b, c.ttl).Err(); err != nil && c.l != nil {
		c.l.Warn("redis stock cache set error",
			applogger.String("market", market),
			applogger.Error(err),
		)
	}
}

func (c *RedisStockCache) Invalidate(ctx context.Context, market string) {
	if err := c.cli.Del(ctx, stockKey(market)).Err(); err != nil && c.l != nil {
		c.l.Warn("redis stock cache invalidate error",
			applogger.String("market", market),
			applogger.Error(err),
		)
	}
}

// Close releases the Redis connection.
func (c *RedisStockCache) Close() error { return c.cli.Close() }
