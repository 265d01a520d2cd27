package cache

import (
	"context"
	"strconv"
	"time"

	ri "github.com/redis/go-redis/v9"

	"Akshayapatra/storage/redis"
)

// 向导状态存储：akpt:setup:{userID}:{key}
// 值为版本化 JSON 信封，Redis TTL 之外信封自带过期时间双保险。

const setupPrefix = "setup"

// SetupStore Redis 实现的向导存储（setup.Store）。
type SetupStore struct{}

func NewSetupStore() *SetupStore {
	return &SetupStore{}
}

func setupKey(userID int64, key string) string {
	return redis.Key(setupPrefix, strconv.FormatInt(userID, 10), key)
}

func (s *SetupStore) Get(ctx context.Context, userID int64, key string, dest interface{}) (bool, error) {
	raw, err := redis.Client().Get(ctx, setupKey(userID, key)).Bytes()
	if err != nil {
		if err == ri.Nil {
			return false, nil // 未命中
		}
		return false, err
	}

	return DecodeEnvelope(raw, dest, time.Now()), nil
}

func (s *SetupStore) Set(ctx context.Context, userID int64, key string, value interface{}, ttl time.Duration) error {
	raw, err := EncodeEnvelope(value, ttl, time.Now())
	if err != nil {
		return err
	}

	return redis.Client().Set(ctx, setupKey(userID, key), raw, ttl).Err()
}

func (s *SetupStore) Delete(ctx context.Context, userID int64, key string) error {
	return redis.Client().Del(ctx, setupKey(userID, key)).Err()
}

// SetupLocker Redis SetNX 实现的步进锁（setup.Locker）。
type SetupLocker struct{}

func NewSetupLocker() *SetupLocker {
	return &SetupLocker{}
}

func (l *SetupLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return TryLock(ctx, key, ttl)
}

func (l *SetupLocker) Unlock(ctx context.Context, key string) error {
	return Unlock(ctx, key)
}
