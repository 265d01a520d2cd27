package setup

import (
	"context"

	"go.uber.org/zap"

	"Akshayapatra/internal/model"
	"Akshayapatra/pkg/logger"
)

// Resolver 缺失步骤解析器：由资料快照与完成状态推导还需展示的步骤序列。
// 唯一的正典实现，资料步骤提交后的重算也走这里。
type Resolver struct {
	store    Store
	profiles ProfileService
}

func NewResolver(store Store, profiles ProfileService) *Resolver {
	return &Resolver{store: store, profiles: profiles}
}

// Resolve 计算步骤序列。
//
// 优先信任存储中的缺失步骤集合（扣除已完成里程碑）：用户刚完成、
// 服务端尚未收敛的步骤不能再次弹出。集合为空时才回退到快照推导。
// 返回空序列表示资料已齐且祝贺序列也看完，调用方应直接离开向导。
func (r *Resolver) Resolve(ctx context.Context, userID int64, profile *model.ProfileSnapshot) (Mapping, error) {
	missing, milestones, err := r.loadSets(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 路径一：客户端侧进度优先
	effective := make([]string, 0, len(missing))
	for token := range missing {
		if !milestones.Contains(token) {
			effective = append(effective, token)
		}
	}
	if len(effective) > 0 {
		codes := make(map[StepCode]bool, len(effective)+3)
		for _, token := range effective {
			if code, ok := tokenToStep[token]; ok {
				codes[code] = true
			}
		}
		return buildMapping(codes), nil
	}

	// 路径二：从快照推导
	needsLocation := profile == nil || profile.Country == "" || profile.State == "" || profile.District == ""
	needsAddress := profile == nil || profile.StreetAddress == ""
	hasScheme := profile != nil && profile.InitialSchemeID != nil

	feeOwed := r.feeNeeded(ctx, userID)

	if !needsLocation && !needsAddress && hasScheme {
		// 三个核心步骤已满足
		if !feeOwed && milestones.Contains(TokenCelebration) {
			return Mapping{}, nil // 全部完成，离开向导
		}
		codes := map[StepCode]bool{}
		if feeOwed {
			codes[StepRegistrationFee] = true
		}
		return buildMapping(codes), nil
	}

	codes := map[StepCode]bool{}
	if needsLocation {
		codes[StepLocation] = true
	}
	if needsAddress {
		codes[StepAddress] = true
	}
	if !hasScheme {
		codes[StepProfile] = true
	}
	if feeOwed {
		codes[StepRegistrationFee] = true
	}
	return buildMapping(codes), nil
}

// feeNeeded 注册费检查。检查失败时按仍欠缴处理：
// 宁可多展示一次付费步骤，不能静默跳过。
func (r *Resolver) feeNeeded(ctx context.Context, userID int64) bool {
	owed, err := r.profiles.RegistrationFeeNeeded(ctx, userID)
	if err != nil {
		logger.Logger.Warn("Registration fee check failed, assuming fee owed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return true
	}
	return owed
}

func (r *Resolver) loadSets(ctx context.Context, userID int64) (missing, milestones StringSet, err error) {
	var missingSlice, milestoneSlice []string

	if _, err = r.store.Get(ctx, userID, KeyMissingSteps, &missingSlice); err != nil {
		return nil, nil, err
	}
	if _, err = r.store.Get(ctx, userID, KeyMilestones, &milestoneSlice); err != nil {
		return nil, nil, err
	}

	return NewStringSet(missingSlice), NewStringSet(milestoneSlice), nil
}
