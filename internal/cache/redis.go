// Package cache stores blobs in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resphone/resphone/internal/blob"

	"github.com/redis/go-redis/v9"
)

// KV is the subset of the Redis client used for blob access.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Connect initializes a Redis client from URL or host:port input.
func Connect(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// BlobStore implements blob.Store with plain string keys and no expiry.
type BlobStore struct {
	KV     KV
	Prefix string
}

var _ blob.Store = (*BlobStore)(nil)

// Get reads Prefix+key. A missing key maps to blob.ErrNotExist.
func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := b.KV.Get(ctx, b.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, blob.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return body, nil
}

// Put writes body to Prefix+key with no expiry.
func (b *BlobStore) Put(ctx context.Context, key string, body []byte) error {
	if err := b.KV.Set(ctx, b.Prefix+key, body, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
