package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tubegrab/internal/core/domain"
)

const keyPrefix = "probe:"

// Cache keeps resolved metadata in Redis so repeated probes of the
// same source skip the extractor. Entries expire; probed catalogs go
// stale once the source's stream URLs rotate.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// New connects to Redis and verifies the connection. A returned error
// means the cache is unavailable; the service runs without one.
func New(addr, password string, db int, ttl time.Duration, logger *log.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

// Lookup returns the cached metadata for source, if present.
func (c *Cache) Lookup(ctx context.Context, source string) (*domain.VideoMetadata, bool) {
	val, err := c.client.Get(ctx, keyPrefix+source).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("cache lookup failed: %v", err)
		}
		return nil, false
	}
	var meta domain.VideoMetadata
	if err := json.Unmarshal([]byte(val), &meta); err != nil {
		c.logger.Printf("cache entry corrupt for %s: %v", source, err)
		return nil, false
	}
	return &meta, true
}

// Store caches the metadata for source with the configured TTL.
// Best effort: failures are logged, never surfaced.
func (c *Cache) Store(ctx context.Context, source string, meta *domain.VideoMetadata) {
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+source, data, c.ttl).Err(); err != nil {
		c.logger.Printf("cache store failed: %v", err)
	}
}
