package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"skinvault-api/internal/model"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "skinvault:price:"

// RedisPriceCache is a Redis-backed implementation of PriceCache, for
// deployments where multiple API instances should share the hot tier.
type RedisPriceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds Redis cache settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisPriceCache creates a Redis price cache and verifies the
// connection.
func NewRedisPriceCache(cfg RedisConfig) (*RedisPriceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[RedisPriceCache] Connected - addr:%s db:%d ttl:%v", cfg.Addr, cfg.DB, cfg.TTL)
	return &RedisPriceCache{client: client, ttl: cfg.TTL}, nil
}

func redisKey(key model.ItemKey) string {
	return redisKeyPrefix + key.String()
}

// Get retrieves a cached price.
func (c *RedisPriceCache) Get(ctx context.Context, key model.ItemKey) (float64, error) {
	val, err := c.client.Get(ctx, redisKey(key)).Result()
	if err == redis.Nil {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}

	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("redis get: bad value %q: %w", val, err)
	}
	return price, nil
}

// Set stores a price under the configured TTL.
func (c *RedisPriceCache) Set(ctx context.Context, key model.ItemKey, price float64) error {
	val := strconv.FormatFloat(price, 'f', -1, 64)
	if err := c.client.Set(ctx, redisKey(key), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a cached price.
func (c *RedisPriceCache) Delete(ctx context.Context, key model.ItemKey) error {
	if err := c.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes all cached prices under the cache prefix.
func (c *RedisPriceCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisPriceCache) Close() error {
	return c.client.Close()
}

// Ensure RedisPriceCache implements PriceCache
var _ PriceCache = (*RedisPriceCache)(nil)
