// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/scriptura/cache"
	"github.com/redis/go-redis/v9"
)

// Cache implements cache.Cache backed by a Redis server.
// Read failures degrade to misses so an unreachable Redis slows the caller
// down but never breaks it.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

var _ cache.Cache = (*Cache)(nil)

// Config holds connection settings for the Redis cache.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is optional; empty means no auth.
	Password string

	// DB selects the Redis logical database.
	DB int
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Cache{
		client: client,
		logger: slog.Default().With("component", "redis-cache"),
	}, nil
}

// Get retrieves the value stored under key.
// Backend errors are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed, treating as miss", "key", key, "err", err)
		}
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores value under key with the given TTL.
// A non-positive ttl stores the entry without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// MGet retrieves multiple keys in one round trip. Misses and backend
// failures yield nil entries at the corresponding positions.
func (c *Cache) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	results := make([][]byte, len(keys))
	if len(keys) == 0 {
		return results, nil
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("cache mget failed, treating all as misses", "keys", len(keys), "err", err)
		return results, nil
	}

	for i, v := range vals {
		// go-redis returns string values for present keys, nil for misses.
		if s, ok := v.(string); ok {
			results[i] = []byte(s)
		}
	}
	return results, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
