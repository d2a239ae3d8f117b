package cache

import (
	"context"
	"testing"
	"time"

	"commentlist/api/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	cache, err := NewRedisStore("redis://"+s.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, s
}

func TestNewRedisStore(t *testing.T) {
	cache, _ := setupTestRedis(t, time.Minute)

	assert.NoError(t, cache.Ping(context.Background()))
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore("not a url", time.Minute)
	assert.Error(t, err)
}

func TestSetAndGetMetadata(t *testing.T) {
	cache, s := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	md := store.NodeMetadata{
		NodeRef: "workspace://SpacesStore/1",
		Properties: map[string]any{
			"{http://www.alfresco.org/model/content/1.0}name": "Report.pdf",
		},
	}
	require.NoError(t, cache.SetMetadata(ctx, md))

	assert.True(t, s.Exists("metadata:workspace://SpacesStore/1"))
	assert.Equal(t, time.Minute, s.TTL("metadata:workspace://SpacesStore/1"))

	got, err := cache.GetMetadata(ctx, md.NodeRef)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, md, *got)
}

func TestGetMetadataMiss(t *testing.T) {
	cache, _ := setupTestRedis(t, time.Minute)

	got, err := cache.GetMetadata(context.Background(), "workspace://SpacesStore/unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMetadataExpires(t *testing.T) {
	cache, s := setupTestRedis(t, time.Second)
	ctx := context.Background()

	require.NoError(t, cache.SetMetadata(ctx, store.NodeMetadata{NodeRef: "n1"}))
	s.FastForward(2 * time.Second)

	got, err := cache.GetMetadata(ctx, "n1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPingFailsWhenServerStops(t *testing.T) {
	cache, s := setupTestRedis(t, time.Minute)
	s.Close()

	assert.Error(t, cache.Ping(context.Background()))
}

func TestCorruptEntry(t *testing.T) {
	cache, s := setupTestRedis(t, time.Minute)
	require.NoError(t, s.Set("metadata:broken", "{not json"))

	_, err := cache.GetMetadata(context.Background(), "broken")
	assert.Error(t, err)
}

func TestDefaultTTL(t *testing.T) {
	cache := NewRedisStoreWithClient(nil, 0)

	assert.Equal(t, defaultTTL, cache.ttl)
}
