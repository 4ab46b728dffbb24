package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/servicesartisans/booking/config"
	"github.com/servicesartisans/booking/internal/domain"
)

// RedisCache holds month-level availability snapshots. The cache is a derived
// view only: it is never consulted for write decisions, so staling it is safe.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    ttl,
	}
}

func (c *RedisCache) GetMonth(ctx context.Context, providerID, yearMonth string) ([]domain.Slot, error) {
	data, err := c.client.Get(ctx, monthKey(providerID, yearMonth)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var slots []domain.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *RedisCache) SetMonth(ctx context.Context, providerID, yearMonth string, slots []domain.Slot) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, monthKey(providerID, yearMonth), payload, c.ttl).Err()
}

// InvalidateMonth drops the snapshot after a slot in that month changed state.
func (c *RedisCache) InvalidateMonth(ctx context.Context, providerID, yearMonth string) error {
	return c.client.Del(ctx, monthKey(providerID, yearMonth)).Err()
}

func monthKey(providerID, yearMonth string) string {
	return fmt.Sprintf("avail:%s:%s", providerID, yearMonth)
}
