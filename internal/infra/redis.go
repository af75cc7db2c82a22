package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedis creates and validates a go-redis client connection.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

const (
	productCachePrefix = "cache:product:barcode:"
	productCacheTTL    = 10 * time.Minute
)

// ProductCache caches catalog lookups by barcode. Every method is a no-op
// when rdb is nil, and cache errors never fail the caller.
type ProductCache struct {
	rdb *redis.Client
}

func NewProductCache(rdb *redis.Client) *ProductCache { return &ProductCache{rdb: rdb} }

func (c *ProductCache) Get(ctx context.Context, barcode string) (*model.Product, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, productCachePrefix+barcode).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("barcode", barcode).Msg("product cache: get failed")
		}
		return nil, false
	}
	var p model.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *model.Product) {
	if c == nil || c.rdb == nil || p == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productCachePrefix+p.Barcode, raw, productCacheTTL).Err(); err != nil {
		log.Debug().Err(err).Str("barcode", p.Barcode).Msg("product cache: set failed")
	}
}

// Delete evicts a barcode so the next lookup reads the catalog again.
func (c *ProductCache) Delete(ctx context.Context, barcode string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, productCachePrefix+barcode).Err(); err != nil {
		log.Debug().Err(err).Str("barcode", barcode).Msg("product cache: delete failed")
	}
}
