package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

// RedisEvalCache keeps engine evaluations in Redis as JSON.
type RedisEvalCache struct {
	client *redis.Client
}

func NewRedisEvalCache(client *redis.Client) *RedisEvalCache {
	return &RedisEvalCache{client: client}
}

func (c *RedisEvalCache) Get(ctx context.Context, key string) (analysis.EvaluationResult, bool, error) {
	var res analysis.EvaluationResult

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return res, false, nil
	}
	if err != nil {
		return res, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, &res); err != nil {
		// a corrupt entry is treated as a miss and overwritten later
		return analysis.EvaluationResult{}, false, nil
	}
	return res, true, nil
}

func (c *RedisEvalCache) Set(ctx context.Context, key string, res analysis.EvaluationResult, ttl time.Duration) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
