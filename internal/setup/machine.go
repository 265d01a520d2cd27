package setup

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"Akshayapatra/pkg/logger"
)

// Status 向导状态标签。状态是单一值，不存在 Loading 与 Redirecting 并存之类的组合。
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusInitializing  Status = "initializing"
	StatusActive        Status = "active"
	StatusRedirecting   Status = "redirecting"    // 向导结束，客户端应跳转仪表盘
	StatusErrorFallback Status = "error_fallback" // 初始化失败，走兜底序列，行为等同 active
)

// State 向导状态快照，整体读写存储。
type State struct {
	Status  Status  `json:"status"`
	Mapping Mapping `json:"mapping"`
	Step    int     `json:"step"`
	Loading bool    `json:"loading"` // 步进进行中，客户端应禁用提交
}

// Current 当前应渲染的步骤。
func (s State) Current() StepCode {
	return s.Mapping.At(s.Step)
}

// Machine 步骤映射状态机。持有有序步骤序列与游标，负责初始化对账、
// 步进与终态判定。每个实例服务一个用户。
type Machine struct {
	userID    int64
	store     Store
	profiles  ProfileService
	referrals ReferralAttacher
	locker    Locker
	resolver  *Resolver

	delay    time.Duration // 跟踪步骤步进后的过渡延迟，流程步骤不延迟
	stateTTL time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	bootstrapped bool // 建档副作用的一次性闩锁，防止初始化重入时重复执行
}

// Option 状态机可选配置。
type Option func(*Machine)

// WithDelay 覆盖步进过渡延迟（测试置零）。
func WithDelay(d time.Duration) Option {
	return func(m *Machine) { m.delay = d }
}

// WithStateTTL 覆盖状态保留时长。
func WithStateTTL(d time.Duration) Option {
	return func(m *Machine) { m.stateTTL = d }
}

// WithSleep 覆盖延迟实现（测试注入）。
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Machine) { m.sleep = fn }
}

func NewMachine(userID int64, store Store, profiles ProfileService, referrals ReferralAttacher, locker Locker, opts ...Option) *Machine {
	m := &Machine{
		userID:    userID,
		store:     store,
		profiles:  profiles,
		referrals: referrals,
		locker:    locker,
		resolver:  NewResolver(store, profiles),
		delay:     400 * time.Millisecond,
		stateTTL:  72 * time.Hour,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Init 初始化对账：问询服务端完成状态、跑一次性建档副作用、解析步骤序列。
// 任何失败都不会让用户卡死：最坏情况回落到兜底序列 [1..7]。
// referralHint 为请求携带的推荐码（cookie 或 query），可为空。
func (m *Machine) Init(ctx context.Context, referralHint string) (State, error) {
	state := State{Status: StatusInitializing}
	if err := m.saveState(ctx, state); err != nil {
		return m.fallback(ctx, err)
	}

	status, err := m.profiles.CompletionStatus(ctx, m.userID)
	if err != nil {
		return m.fallback(ctx, err)
	}

	if status.IsComplete {
		missing, err := m.loadSet(ctx, KeyMissingSteps)
		if err != nil {
			return m.fallback(ctx, err)
		}
		if len(missing) == 0 {
			// 服务端已完成且本地无未竟步骤，直接离开向导
			return m.complete(ctx)
		}
	} else {
		// 服务端对“缺什么”有最终话语权，本地只保留会话内的顺序与去重
		if err := m.saveSet(ctx, KeyMissingSteps, NewStringSet(status.MissingSteps)); err != nil {
			return m.fallback(ctx, err)
		}
	}

	m.bootstrap(ctx, referralHint)

	if err := ctx.Err(); err != nil {
		return State{Status: StatusUninitialized}, err
	}

	profile, err := m.profiles.FetchSnapshot(ctx, m.userID)
	if err != nil {
		return m.fallback(ctx, err)
	}

	mapping, err := m.resolver.Resolve(ctx, m.userID, profile)
	if err != nil {
		return m.fallback(ctx, err)
	}

	if len(mapping) == 0 {
		return m.complete(ctx)
	}

	state = State{Status: StatusActive, Mapping: mapping, Step: 0}
	if err := m.saveState(ctx, state); err != nil {
		return m.fallback(ctx, err)
	}
	return state, nil
}

// bootstrap 一次性建档副作用：幂等建档 + 绑定推荐码。
// 失败只记日志，绝不阻断向导渲染——向导本身就是用来补全资料的。
func (m *Machine) bootstrap(ctx context.Context, referralHint string) {
	m.mu.Lock()
	if m.bootstrapped {
		m.mu.Unlock()
		return
	}
	m.bootstrapped = true
	m.mu.Unlock()

	if err := m.profiles.EnsureProfile(ctx, m.userID); err != nil {
		logger.Logger.Warn("Setup bootstrap: ensure profile failed",
			zap.Int64("user_id", m.userID),
			zap.Error(err),
		)
	}

	code := referralHint
	if code == "" {
		var stored string
		if hit, err := m.store.Get(ctx, m.userID, KeyReferralCode, &stored); err == nil && hit {
			code = stored
		}
	}
	if code == "" {
		return
	}

	if err := m.referrals.AttachByCode(ctx, m.userID, code); err != nil {
		logger.Logger.Warn("Setup bootstrap: referral attach failed",
			zap.Int64("user_id", m.userID),
			zap.String("referral_code", code),
			zap.Error(err),
		)
	}
}

// Current 读取当前状态，不存在时返回 Uninitialized。
func (m *Machine) Current(ctx context.Context) (State, error) {
	var state State
	hit, err := m.store.Get(ctx, m.userID, KeyState, &state)
	if err != nil {
		return State{Status: StatusUninitialized}, err
	}
	if !hit {
		return State{Status: StatusUninitialized}, nil
	}
	return state, nil
}

// Advance 步进：completedIndex 为刚完成的步骤下标。
//
// 跟踪步骤（1/2/3/7）先落里程碑再决定去向；唯一的终态条件是
// “缺失集合已空且完成的恰是注册费步骤”——完成 1/2/3 后必须继续进入
// 祝贺序列而不是提前退出。无注册费步骤时走到序列尽头同样收尾。
// Loading 闩锁抑制重复步进：进行中的重复调用原样返回当前状态。
func (m *Machine) Advance(ctx context.Context, completedIndex int) (State, error) {
	state, err := m.Current(ctx)
	if err != nil {
		return state, err
	}
	if state.Status != StatusActive && state.Status != StatusErrorFallback {
		return state, nil
	}
	if state.Loading {
		return state, nil
	}

	if ok, err := m.acquire(ctx); err != nil || !ok {
		return state, err
	}
	defer m.release(ctx)

	state.Loading = true
	if err := m.saveState(ctx, state); err != nil {
		return state, err
	}

	code := state.Mapping.At(completedIndex)

	if code.Tracked() {
		if err := m.markMilestone(ctx, code.Token()); err != nil {
			return m.unload(ctx, state, err)
		}

		missing, err := m.loadSet(ctx, KeyMissingSteps)
		if err != nil {
			return m.unload(ctx, state, err)
		}
		if len(missing) == 0 && code == StepRegistrationFee {
			return m.complete(ctx)
		}

		if err := m.sleep(ctx, m.delay); err != nil {
			return m.unload(ctx, state, err)
		}
	} else if code == StepCredentials {
		// 祝贺序列的最后一页，记下已看完
		if err := m.markMilestone(ctx, TokenCelebration); err != nil {
			return m.unload(ctx, state, err)
		}
	}

	next := completedIndex + 1
	if next >= len(state.Mapping) {
		if !state.Mapping.Contains(StepRegistrationFee) {
			return m.complete(ctx)
		}
		next = len(state.Mapping) - 1
	}

	state.Step = next
	state.Loading = false
	if err := m.saveState(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

// SubmitProfile 资料步骤的特殊提交：持久化姓名/手机号/方案，尽力绑定推荐码，
// 落里程碑后整体重算步骤序列再前进——注册费是否出现取决于手机验证状态，
// 而该状态可能随资料补全而改变。
func (m *Machine) SubmitProfile(ctx context.Context, fullName, phone string, schemeID *int64, referralCode string) (State, error) {
	state, err := m.Current(ctx)
	if err != nil {
		return state, err
	}
	if state.Status != StatusActive && state.Status != StatusErrorFallback {
		return state, nil
	}
	if state.Loading {
		return state, nil
	}

	if ok, err := m.acquire(ctx); err != nil || !ok {
		return state, err
	}
	defer m.release(ctx)

	state.Loading = true
	if err := m.saveState(ctx, state); err != nil {
		return state, err
	}

	// 资料保存失败要让用户留在本步重试
	if err := m.profiles.UpdateProfile(ctx, m.userID, fullName, phone, schemeID); err != nil {
		if _, uerr := m.unload(ctx, state, nil); uerr != nil {
			logger.Logger.Warn("Failed to clear loading flag after profile save failure",
				zap.Int64("user_id", m.userID),
				zap.Error(uerr),
			)
		}
		return state, err
	}

	if referralCode != "" {
		if err := m.referrals.AttachByCode(ctx, m.userID, referralCode); err != nil {
			logger.Logger.Warn("Profile submit: referral attach failed",
				zap.Int64("user_id", m.userID),
				zap.Error(err),
			)
		}
	}

	if err := m.markMilestone(ctx, TokenProfile); err != nil {
		return m.unload(ctx, state, err)
	}

	// 整体重算序列
	profile, err := m.profiles.FetchSnapshot(ctx, m.userID)
	if err != nil {
		logger.Logger.Warn("Profile submit: snapshot fetch failed, keeping current mapping",
			zap.Int64("user_id", m.userID),
			zap.Error(err),
		)
	} else {
		if mapping, rerr := m.resolver.Resolve(ctx, m.userID, profile); rerr != nil {
			logger.Logger.Warn("Profile submit: mapping recompute failed, keeping current mapping",
				zap.Int64("user_id", m.userID),
				zap.Error(rerr),
			)
		} else if len(mapping) > 0 {
			state.Mapping = mapping
		}
	}

	if err := m.sleep(ctx, m.delay); err != nil {
		return m.unload(ctx, state, err)
	}

	next := state.Step + 1
	if next >= len(state.Mapping) {
		next = len(state.Mapping) - 1
	}
	state.Step = next
	state.Loading = false
	if err := m.saveState(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

// markMilestone 落里程碑并将其从缺失集合中剔除。
func (m *Machine) markMilestone(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	milestones, err := m.loadSet(ctx, KeyMilestones)
	if err != nil {
		return err
	}
	milestones.Add(token)
	if err := m.saveSet(ctx, KeyMilestones, milestones); err != nil {
		return err
	}

	missing, err := m.loadSet(ctx, KeyMissingSteps)
	if err != nil {
		return err
	}
	if missing.Contains(token) {
		missing.Remove(token)
		if err := m.saveSet(ctx, KeyMissingSteps, missing); err != nil {
			return err
		}
	}
	return nil
}

// complete 向导收尾：清空全部向导状态并落库终态。
func (m *Machine) complete(ctx context.Context) (State, error) {
	if err := m.profiles.FinishSetup(ctx, m.userID); err != nil {
		logger.Logger.Warn("Setup finish persistence failed",
			zap.Int64("user_id", m.userID),
			zap.Error(err),
		)
	}

	for _, key := range []string{KeyState, KeyMissingSteps, KeyMilestones, KeyCart, KeyReferralCode} {
		if err := m.store.Delete(ctx, m.userID, key); err != nil {
			logger.Logger.Warn("Failed to clear setup key",
				zap.Int64("user_id", m.userID),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return State{Status: StatusRedirecting}, nil
}

// fallback 初始化失败的兜底：展示完整序列而不是白屏。
func (m *Machine) fallback(ctx context.Context, cause error) (State, error) {
	logger.Logger.Error("Setup init failed, falling back to default mapping",
		zap.Int64("user_id", m.userID),
		zap.Error(cause),
	)

	state := State{Status: StatusErrorFallback, Mapping: DefaultMapping(), Step: 0}
	if err := m.saveState(ctx, state); err != nil {
		// 连兜底状态都写不进去也要返回可渲染的结果
		logger.Logger.Error("Failed to persist fallback state", zap.Error(err))
	}
	return state, nil
}

// unload 清除 Loading 闩锁后透传错误。
func (m *Machine) unload(ctx context.Context, state State, cause error) (State, error) {
	state.Loading = false
	if err := m.saveState(ctx, state); err != nil && cause == nil {
		cause = err
	}
	return state, cause
}

func (m *Machine) acquire(ctx context.Context) (bool, error) {
	return m.locker.TryLock(ctx, m.lockKey(), 30*time.Second)
}

func (m *Machine) release(ctx context.Context) {
	if err := m.locker.Unlock(ctx, m.lockKey()); err != nil {
		logger.Logger.Warn("Failed to release setup advance lock",
			zap.Int64("user_id", m.userID),
			zap.Error(err),
		)
	}
}

func (m *Machine) lockKey() string {
	return "setup:advance:" + strconv.FormatInt(m.userID, 10)
}

func (m *Machine) saveState(ctx context.Context, state State) error {
	return m.store.Set(ctx, m.userID, KeyState, state, m.stateTTL)
}

func (m *Machine) loadSet(ctx context.Context, key string) (StringSet, error) {
	var tokens []string
	if _, err := m.store.Get(ctx, m.userID, key, &tokens); err != nil {
		return nil, err
	}
	return NewStringSet(tokens), nil
}

func (m *Machine) saveSet(ctx context.Context, key string, set StringSet) error {
	return m.store.Set(ctx, m.userID, key, set.Slice(), m.stateTTL)
}
