package cache

import (
	"context"
	"strconv"

	"Akshayapatra/internal/model"
)

// 资料快照缓存：引导流程每次初始化都要读快照，避免反复打数据库。
// 资料更新路径负责失效。

// SetProfileSnapshot 写快照缓存
func SetProfileSnapshot(ctx context.Context, userID int64, snapshot *model.ProfileSnapshot) error {
	key := strconv.FormatInt(userID, 10)
	return ProfileProtectedCache.Set(ctx, key, snapshot)
}

// GetProfileSnapshot 读快照缓存（带空值保护）
func GetProfileSnapshot(ctx context.Context, userID int64) (*model.ProfileSnapshot, error) {
	key := strconv.FormatInt(userID, 10)
	var snapshot model.ProfileSnapshot

	hit, err := ProfileProtectedCache.Get(ctx, key, &snapshot)
	if err != nil {
		return nil, err
	}

	if hit {
		if IsEmptyValue(&snapshot) {
			return nil, nil // 空值命中
		}
		return &snapshot, nil
	}

	return nil, nil // 缓存未命中
}

// InvalidateProfileSnapshot 资料更新后失效快照
func InvalidateProfileSnapshot(ctx context.Context, userID int64) error {
	key := strconv.FormatInt(userID, 10)
	return ProfileProtectedCache.Delete(ctx, key)
}
