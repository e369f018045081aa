package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const defaultTextTTL = 24 * time.Hour

// TextCache keeps extracted document text keyed by the object-storage key of
// the source file. Entries are derived data and safe to lose.
type TextCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTextCache(client *redisv9.Client, ttl time.Duration) *TextCache {
	if ttl <= 0 {
		ttl = defaultTextTTL
	}
	return &TextCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached text and whether it was present.
func (c *TextCache) Get(ctx context.Context, objectKey string) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.textKey(objectKey)).Result()
	if errors.Is(err, redisv9.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get text failed: %w", err)
	}
	return raw, true, nil
}

// Set stores text with the cache TTL. Empty text is never stored so that a
// failed extraction is retried on the next read.
func (c *TextCache) Set(ctx context.Context, objectKey, text string) error {
	if text == "" {
		return nil
	}
	if err := c.client.Set(ctx, c.textKey(objectKey), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set text failed: %w", err)
	}
	return nil
}

func (c *TextCache) Delete(ctx context.Context, objectKeys ...string) error {
	if len(objectKeys) == 0 {
		return nil
	}
	keys := make([]string, len(objectKeys))
	for i, k := range objectKeys {
		keys[i] = c.textKey(k)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete text failed: %w", err)
	}
	return nil
}

func (c *TextCache) TTL() time.Duration {
	return c.ttl
}

func (c *TextCache) textKey(objectKey string) string {
	return "claims:text:" + objectKey
}
