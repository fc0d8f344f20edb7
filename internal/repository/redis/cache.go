package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bindisa/agritech-api/internal/domain"
)

const (
	analyticsCachePrefix = "analytics:"
	analyticsCacheTTL    = 5 * time.Minute
)

// AnalyticsCache keeps aggregated chat analytics in Redis so repeated
// dashboard loads do not re-run the aggregation pipelines
type AnalyticsCache struct {
	client *Client
}

// NewAnalyticsCache creates a new analytics cache
func NewAnalyticsCache(client *Client) *AnalyticsCache {
	return &AnalyticsCache{client: client}
}

func cacheKey(filter domain.AnalyticsFilter) string {
	from, to := "", ""
	if filter.From != nil {
		from = filter.From.UTC().Format(time.RFC3339)
	}
	if filter.To != nil {
		to = filter.To.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s%s|%s|%s|%s|%s",
		analyticsCachePrefix, from, to, filter.Language, filter.Topic, filter.Status)
}

// Get retrieves cached analytics for a filter, nil on cache miss
func (c *AnalyticsCache) Get(ctx context.Context, filter domain.AnalyticsFilter) (*domain.ChatAnalytics, error) {
	data, err := c.client.rdb.Get(ctx, cacheKey(filter)).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var analytics domain.ChatAnalytics
	if err := json.Unmarshal(data, &analytics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analytics: %w", err)
	}

	return &analytics, nil
}

// Set caches analytics for a filter
func (c *AnalyticsCache) Set(ctx context.Context, filter domain.AnalyticsFilter, analytics *domain.ChatAnalytics) error {
	data, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}

	return c.client.rdb.Set(ctx, cacheKey(filter), data, analyticsCacheTTL).Err()
}

// FlushAll removes all cached analytics
func (c *AnalyticsCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := analyticsCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
