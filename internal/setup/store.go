package setup

import (
	"context"
	"time"

	"Akshayapatra/internal/model"
)

// 向导状态在存储中的键名，按用户维度隔离。
const (
	KeyMissingSteps = "missing_steps"
	KeyMilestones   = "milestones"
	KeyState        = "state"
	KeyProfile      = "profile"
	KeyCart         = "cart"
	KeyReferralCode = "referral_code"
	KeyDirtyFlags   = "dirty_flags"
)

// Store 向导持久化端口。实现负责版本化信封与 TTL；
// 解析失败或过期一律按未命中处理，调用方提供兜底值。
type Store interface {
	// Get 反序列化到 dest，返回是否命中。
	Get(ctx context.Context, userID int64, key string, dest interface{}) (bool, error)
	// Set 写入值，ttl 为零表示不过期。
	Set(ctx context.Context, userID int64, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, userID int64, key string) error
}

// Locker 步进串行化端口，生产环境为 Redis SetNX 锁。
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// ProfileService 资料服务端口，向导初始化与步骤提交依赖的全部外部调用。
type ProfileService interface {
	// CompletionStatus 服务端权威的完成状态。
	CompletionStatus(ctx context.Context, userID int64) (*CompletionStatus, error)
	// EnsureProfile 幂等建档，重复调用无副作用。
	EnsureProfile(ctx context.Context, userID int64) error
	// FetchSnapshot 读取资料快照。
	FetchSnapshot(ctx context.Context, userID int64) (*model.ProfileSnapshot, error)
	// RegistrationFeeNeeded 注册费是否仍欠缴。
	RegistrationFeeNeeded(ctx context.Context, userID int64) (bool, error)
	// UpdateProfile 资料步骤的持久化。schemeID 可空。
	UpdateProfile(ctx context.Context, userID int64, fullName, phone string, schemeID *int64) error
	// FinishSetup 向导终态落库（用户转为 active）。
	FinishSetup(ctx context.Context, userID int64) error
}

// ReferralAttacher 推荐关系端口，绑定失败只记日志不阻断向导。
type ReferralAttacher interface {
	AttachByCode(ctx context.Context, userID int64, code string) error
}

// CompletionStatus 完成状态检查的结果。
type CompletionStatus struct {
	IsComplete   bool     `json:"is_complete"`
	MissingSteps []string `json:"missing_steps"`
}

// StringSet 存储中的 token 集合（缺失步骤、里程碑共用）。
type StringSet map[string]bool

// Add 返回是否实际发生了变化。
func (s StringSet) Add(token string) bool {
	if s[token] {
		return false
	}
	s[token] = true
	return true
}

func (s StringSet) Remove(token string) {
	delete(s, token)
}

func (s StringSet) Contains(token string) bool {
	return s[token]
}

// Slice 导出为切片（无序），序列化用。
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}

// NewStringSet 从切片构造集合。
func NewStringSet(tokens []string) StringSet {
	s := make(StringSet, len(tokens))
	for _, t := range tokens {
		s[t] = true
	}
	return s
}
