// Package cache keeps node metadata in Redis so repeated page renders do not
// hit the catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"commentlist/api/internal/store"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 60 * time.Second

// RedisStore caches store.NodeMetadata keyed by node reference
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient creates a cache from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: "metadata:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(nodeRef string) string {
	return s.prefix + nodeRef
}

// GetMetadata returns nil, nil on a cache miss.
func (s *RedisStore) GetMetadata(ctx context.Context, nodeRef string) (*store.NodeMetadata, error) {
	raw, err := s.client.Get(ctx, s.key(nodeRef)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}

	var md store.NodeMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &md, nil
}

func (s *RedisStore) SetMetadata(ctx context.Context, md store.NodeMetadata) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := s.client.Set(ctx, s.key(md.NodeRef), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
