package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/cache"
)

// RedisThresholdCache implements ThresholdCache over pkg/cache. Saved
// thresholds have no TTL; a stale calibration beats no calibration at
// cold start.
type RedisThresholdCache struct {
	cache cache.Service
}

// NewRedisThresholdCache creates a Redis-backed threshold cache.
func NewRedisThresholdCache(c cache.Service) *RedisThresholdCache {
	return &RedisThresholdCache{cache: c}
}

func thresholdKey(instrument string) string {
	return fmt.Sprintf("thresholds:%s", instrument)
}

// Load returns (nil, nil) on a cache miss.
func (c *RedisThresholdCache) Load(ctx context.Context, instrument string) (*models.Thresholds, error) {
	var th models.Thresholds
	err := c.cache.Get(ctx, thresholdKey(instrument), &th)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &th, nil
}

func (c *RedisThresholdCache) Save(ctx context.Context, instrument string, th models.Thresholds) error {
	return c.cache.Set(ctx, thresholdKey(instrument), th, 0)
}

// NoopThresholdCache is used when Redis is disabled; every Load is a
// miss and Save does nothing.
type NoopThresholdCache struct{}

func (NoopThresholdCache) Load(context.Context, string) (*models.Thresholds, error) {
	return nil, nil
}

func (NoopThresholdCache) Save(context.Context, string, models.Thresholds) error {
	return nil
}
