package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockKey(t *testing.T) {
	assert.Equal(t, "catalog:slug-lock:cafe", lockKey("cafe"))
}

func TestNewSlugLocker_Defaults(t *testing.T) {
	l := NewSlugLocker(nil, 0, nil)
	assert.Equal(t, defaultLockTTL, l.ttl)
	assert.NotNil(t, l.logger)
}

func TestLock_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := NewSlugLocker(client, time.Second, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	unlock, err := l.Lock(ctx, "cafe")
	require.Error(t, err)
	assert.Nil(t, unlock)
	assert.Contains(t, err.Error(), "redis_slug_lock_failed")
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-url", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid URL")
}
