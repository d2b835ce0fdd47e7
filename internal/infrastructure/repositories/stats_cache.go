package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/glucopredict/domain"
)

// StatsCache stores per-user prediction statistics in Redis
type StatsCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStatsCache creates a new stats cache
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{
		client: client,
		prefix: "stats:",
		ttl:    ttl,
	}
}

func (c *StatsCache) key(userID string) string {
	return c.prefix + userID
}

func (c *StatsCache) genKey(userID string) string {
	return c.prefix + "gen:" + userID
}

// Get returns the cached stats and whether there was a hit
func (c *StatsCache) Get(ctx context.Context, userID string) (*domain.PredictionStats, bool, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var stats domain.PredictionStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	if stats.RiskDistribution == nil {
		stats.RiskDistribution = map[string]int64{}
	}
	return &stats, true, nil
}

// Set stores stats with the configured TTL
func (c *StatsCache) Set(ctx context.Context, userID string, stats *domain.PredictionStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return c.client.Set(ctx, c.key(userID), data, c.ttl).Err()
}

// Generation returns the user's write generation. It starts at 0 and
// every Invalidate bumps it.
func (c *StatsCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetIfGeneration stores stats only while the user's generation is still gen.
// It reports false when a write happened since gen was read.
func (c *StatsCache) SetIfGeneration(ctx context.Context, userID string, gen int64, stats *domain.PredictionStats) (bool, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return false, fmt.Errorf("failed to marshal stats: %w", err)
	}

	genKey := c.genKey(userID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(userID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate bumps the user's generation and drops the cached entry
func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(userID))
		pipe.Del(ctx, c.key(userID))
		return nil
	})
	return err
}
