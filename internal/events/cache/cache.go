package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-eventus/internal/logger"
	"ms-eventus/internal/models"
)

// keySetKey tracks every cached listing key so Flush can drop them all after
// a mutation without scanning the keyspace.
const keySetKey = "events:list:keys"

// Cache is a best-effort redis cache for listing responses. Every error is
// logged and treated as a miss; the database stays the source of truth.
type Cache struct {
	Client *redis.Client
	Logger *logger.Logger
	TTL    time.Duration
}

func NewCache(client *redis.Client, log *logger.Logger, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{Client: client, Logger: log, TTL: ttl}
}

func (c *Cache) Get(key string) ([]models.Event, bool) {
	ctx := context.Background()
	payload, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.Logger.Warn("CACHE", fmt.Sprintf("Failed to read %s: %v", key, err))
		}
		return nil, false
	}

	var events []models.Event
	if err := json.Unmarshal(payload, &events); err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Dropping malformed cache entry %s: %v", key, err))
		c.Client.Del(ctx, key)
		return nil, false
	}
	return events, true
}

func (c *Cache) Set(key string, events []models.Event) {
	payload, err := json.Marshal(events)
	if err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to serialize cache entry %s: %v", key, err))
		return
	}

	ctx := context.Background()
	pipe := c.Client.TxPipeline()
	pipe.Set(ctx, key, payload, c.TTL)
	pipe.SAdd(ctx, keySetKey, key)
	pipe.Expire(ctx, keySetKey, c.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to write cache entry %s: %v", key, err))
	}
}

// Flush drops every cached listing. Called after any mutation of the events
// table so clients never see stale listings longer than one request.
func (c *Cache) Flush() {
	ctx := context.Background()
	keys, err := c.Client.SMembers(ctx, keySetKey).Result()
	if err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to enumerate cache keys: %v", err))
		return
	}
	keys = append(keys, keySetKey)
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to flush cache: %v", err))
	}
}
