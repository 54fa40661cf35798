package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
)

const (
	lockKeyPrefix     = "catalog:slug-lock:"
	defaultLockTTL    = 5 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

// releaseScript は自分のトークンが入っている場合だけキーを削除する。
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SlugLocker はベーススラッグ単位の分散ロック。複数の API インスタンス間で採番を直列化する。
type SlugLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ application.SlugLocker = (*SlugLocker)(nil)

// NewSlugLocker は ttl 経過で自動解放されるロックを作る。ttl が 0 以下なら 5 秒。
func NewSlugLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SlugLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlugLocker{client: client, ttl: ttl, logger: logger}
}

// Lock は取得できるまで SET NX PX を繰り返す。ctx が終われば諦める。
func (l *SlugLocker) Lock(ctx context.Context, base string) (func(), error) {
	key := lockKey(base)
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("redis_slug_lock_failed: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *SlugLocker) release(key, token string) {
	// 呼び出し元の ctx が切れていても解放は試みる
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.logger.Warn("slug lock release failed", zap.String("key", key), zap.Error(err))
	}
}

func lockKey(base string) string {
	return lockKeyPrefix + base
}
