package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/stevenleohash/fortune-flow-end/internal/core"
)

const shopDataKeyPrefix = "shop:data:"

// ShopCacheServiceOptions holds the dependencies for creating a ShopCacheService.
type ShopCacheServiceOptions struct {
	Shops  core.ShopRepository
	Cache  core.CacheRepository
	TTL    time.Duration
	Logger *slog.Logger
}

// ShopCacheService fronts shop payload reads with a cache. Dispatch payloads
// are rebuilt on every trigger, so without the cache every timer fire would
// hit the store.
type ShopCacheService struct {
	shops  core.ShopRepository
	cache  core.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewShopCacheService creates a ShopCacheService with the given options.
func NewShopCacheService(opts ShopCacheServiceOptions) *ShopCacheService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ShopCacheService{
		shops:  opts.Shops,
		cache:  opts.Cache,
		ttl:    opts.TTL,
		logger: logger.With("component", "shop_cache"),
	}
}

// GetShopData returns the shop's dispatch payload, serving from cache when
// possible. Cache failures degrade to a direct store read.
func (s *ShopCacheService) GetShopData(ctx context.Context, shopID string) (json.RawMessage, error) {
	key := shopDataKeyPrefix + shopID

	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "shop cache read failed", "shop_id", shopID, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	data, err := s.shops.GetShopData(ctx, shopID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "shop cache write failed", "shop_id", shopID, "error", err)
	}
	return data, nil
}

// Invalidate drops the cached payload for a shop. Called when shop data is
// edited externally so the next dispatch sees fresh data.
func (s *ShopCacheService) Invalidate(ctx context.Context, shopID string) {
	if _, err := s.cache.Delete(ctx, shopDataKeyPrefix+shopID); err != nil {
		s.logger.WarnContext(ctx, "shop cache invalidate failed", "shop_id", shopID, "error", err)
	}
}
