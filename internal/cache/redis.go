package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/farequote/config"
	"github.com/Domenick1991/farequote/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	facetsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, facetsTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		facetsTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, facetsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, facetsTTL: facetsTTL}
}

// GetFacets returns nil, nil on a miss.
func (c *RedisCache) GetFacets(ctx context.Context) (*domain.Facets, error) {
	data, err := c.client.Get(ctx, facetsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var facets domain.Facets
	if err := json.Unmarshal(data, &facets); err != nil {
		return nil, err
	}
	return &facets, nil
}

func (c *RedisCache) SetFacets(ctx context.Context, facets *domain.Facets) error {
	payload, err := json.Marshal(facets)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, facetsKey(), payload, c.facetsTTL).Err()
}

func (c *RedisCache) InvalidateFacets(ctx context.Context) error {
	return c.client.Del(ctx, facetsKey()).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func facetsKey() string {
	return "cache:fare_facets"
}
