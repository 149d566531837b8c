package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadpilot/internal/domain/model"
	"leadpilot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// FeedCache stores rendered feed pages in redis. Pages are cached before
// viewer-specific fields (unlocked contacts, favorites) are applied, so one
// entry serves every caller. Implements usecase.FeedCache.
type FeedCache struct {
	client RedisClient
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewFeedCache(client RedisClient, ttl time.Duration, logger *zerolog.Logger) *FeedCache {
	l := logger.With().Str("component", "FeedCache").Logger()
	return &FeedCache{client: client, ttl: ttl, log: &l}
}

func pageKey(page, pageSize int, cnae string) string {
	return fmt.Sprintf("feed_page:%d:%d:%s", page, pageSize, cnae)
}

func (c *FeedCache) GetPage(ctx context.Context, page, pageSize int, cnae string) ([]*model.Lead, bool) {
	data, err := c.client.Get(ctx, pageKey(page, pageSize, cnae))
	if err != nil {
		if !errors.Is(err, Nil) {
			c.log.Warn().Err(err).Msg("feed cache read failed")
		}
		metrics.IncCacheRequest("feed", "miss")
		return nil, false
	}
	var leads []*model.Lead
	if err := json.Unmarshal([]byte(data), &leads); err != nil {
		metrics.IncCacheRequest("feed", "miss")
		return nil, false
	}
	metrics.IncCacheRequest("feed", "hit")
	return leads, true
}

func (c *FeedCache) StorePage(ctx context.Context, page, pageSize int, cnae string, leads []*model.Lead) {
	data, err := json.Marshal(leads)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, pageKey(page, pageSize, cnae), data, c.ttl); err != nil {
		c.log.Warn().Err(err).Msg("feed cache write failed")
	}
}
