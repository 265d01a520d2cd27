package cache

import (
	"context"
	"strconv"
	"time"

	"Akshayapatra/storage/redis"
)

// 脏标记：akpt:dirty:{userID} 为一个 flag 集合。
// 佣金入账、推荐关系变更后标脏，前端读聚合前据此决定是否强制刷新，
// worker 重算完成后清除。

const dirtyPrefix = "dirty"

// 可用的脏标记
const (
	DirtyReferralStats = "referral_stats"
	DirtyTransactions  = "transactions"
)

func dirtyKey(userID int64) string {
	return redis.Key(dirtyPrefix, strconv.FormatInt(userID, 10))
}

// MarkDirty 设置脏标记
func MarkDirty(ctx context.Context, userID int64, flags ...string) error {
	if len(flags) == 0 {
		return nil
	}

	members := make([]interface{}, len(flags))
	for i, f := range flags {
		members[i] = f
	}

	pipe := redis.Client().Pipeline()
	pipe.SAdd(ctx, dirtyKey(userID), members...)
	pipe.Expire(ctx, dirtyKey(userID), 7*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// ClearDirty 清除脏标记（worker 重算完成后）
func ClearDirty(ctx context.Context, userID int64, flags ...string) error {
	if len(flags) == 0 {
		return nil
	}

	members := make([]interface{}, len(flags))
	for i, f := range flags {
		members[i] = f
	}
	return redis.Client().SRem(ctx, dirtyKey(userID), members...).Err()
}

// GetDirtyFlags 读取全部脏标记
func GetDirtyFlags(ctx context.Context, userID int64) ([]string, error) {
	return redis.Client().SMembers(ctx, dirtyKey(userID)).Result()
}
