package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Akshayapatra/config"
	"Akshayapatra/internal/cache"
	"Akshayapatra/internal/model"
	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/queue"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/metrics"
	"Akshayapatra/storage/database"
)

var (
	referralOnce    sync.Once
	referralService *ReferralService
)

// ReferralService 推荐关系与层级佣金
type ReferralService struct{}

func Referral() *ReferralService {
	referralOnce.Do(func() {
		referralService = &ReferralService{}
	})
	return referralService
}

// AttachByCode 绑定推荐人。自绑、重复绑定、成环都会被拒绝。
func (s *ReferralService) AttachByCode(ctx context.Context, userID int64, code string) error {
	var referrer model.User
	if err := database.DB().WithContext(ctx).
		Where("referral_code = ?", code).
		First(&referrer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ReferralCodeInvalid
		}
		return fmt.Errorf("failed to load referrer: %w", err)
	}

	if referrer.ID == userID {
		return errors.ReferralSelfAttach
	}

	user, err := Profile().UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ReferrerID != nil {
		return errors.ReferralAlreadySet
	}

	// 沿推荐链向上查环：绑定对象的祖先里不能出现自己
	cursor := referrer.ReferrerID
	for depth := 0; cursor != nil && depth < config.Cfg.ReferralMaxDepth*4; depth++ {
		if *cursor == userID {
			return errors.ReferralSelfAttach
		}
		var parent model.User
		if err := database.DB().WithContext(ctx).
			Select("id", "referrer_id").
			First(&parent, *cursor).Error; err != nil {
			break
		}
		cursor = parent.ReferrerID
	}

	if err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND referrer_id IS NULL", userID).
		Update("referrer_id", referrer.ID).Error; err != nil {
		return fmt.Errorf("failed to attach referrer: %w", err)
	}

	if err := cache.MarkDirty(ctx, referrer.ID, cache.DirtyReferralStats); err != nil {
		logger.Logger.Warn("Failed to mark referral stats dirty",
			zap.Int64("referrer_id", referrer.ID),
			zap.Error(err),
		)
	}

	if err := queue.PublishReferralStatsRecompute(referrer.ID, "referral_attached"); err != nil {
		logger.Logger.Warn("Failed to publish referral recompute",
			zap.Int64("referrer_id", referrer.ID),
			zap.Error(err),
		)
	}

	return nil
}

// Stats 推荐聚合，缓存优先；存在脏标记时透传 pending_recompute
func (s *ReferralService) Stats(ctx context.Context, userID int64) (*dto.ReferralStatsResponse, error) {
	user, err := Profile().UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cacheKey := strconv.FormatInt(userID, 10)
	var stats model.ReferralStats

	hit, err := cache.ReferralStatsProtectedCache.Get(ctx, cacheKey, &stats)
	if err != nil {
		logger.Logger.Warn("Referral stats cache read failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		hit = false
	}

	if !hit {
		if err := database.DB().WithContext(ctx).
			Where("user_id = ?", userID).
			First(&stats).Error; err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to load referral stats: %w", err)
		}
		if err := cache.ReferralStatsProtectedCache.Set(ctx, cacheKey, &stats); err != nil {
			logger.Logger.Warn("Failed to cache referral stats", zap.Error(err))
		}
	}

	dirtyFlags, err := cache.GetDirtyFlags(ctx, userID)
	if err != nil {
		logger.Logger.Warn("Failed to read dirty flags", zap.Error(err))
	}
	pending := false
	for _, f := range dirtyFlags {
		if f == cache.DirtyReferralStats {
			pending = true
			break
		}
	}

	updatedAt := stats.UpdatedAt
	if stats.RecomputedAt != nil {
		updatedAt = *stats.RecomputedAt
	}

	return &dto.ReferralStatsResponse{
		ReferralCode:     user.ReferralCode,
		DirectCount:      stats.DirectReferrals,
		TeamCount:        stats.TotalReferrals,
		TotalCommission:  stats.TotalCommission.StringFixed(2),
		PendingRecompute: pending,
		UpdatedAt:        updatedAt,
	}, nil
}

// Commissions 佣金流水，按时间倒序
func (s *ReferralService) Commissions(ctx context.Context, userID int64, limit int) (*dto.CommissionListResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var commissions []model.Commission
	if err := database.DB().WithContext(ctx).
		Where("beneficiary_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}

	// 下级内部 ID 批量换对外 ID
	sourceIDs := make([]int64, 0, len(commissions))
	for _, c := range commissions {
		sourceIDs = append(sourceIDs, c.SourceUserID)
	}

	publicIDs := map[int64]string{}
	if len(sourceIDs) > 0 {
		var users []model.User
		if err := database.DB().WithContext(ctx).
			Select("id", "public_id").
			Where("id IN ?", sourceIDs).
			Find(&users).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve source users: %w", err)
		}
		for _, u := range users {
			publicIDs[u.ID] = strconv.FormatInt(u.PublicID, 10)
		}
	}

	total := decimal.Zero
	out := make([]dto.CommissionResponse, 0, len(commissions))
	for _, c := range commissions {
		total = total.Add(c.Amount)
		out = append(out, dto.CommissionResponse{
			ID:            c.ID,
			Level:         c.Level,
			Amount:        c.Amount.StringFixed(2),
			FromUserID:    publicIDs[c.SourceUserID],
			InstallmentID: c.InstallmentID,
			CreatedAt:     c.CreatedAt,
		})
	}

	return &dto.CommissionListResponse{
		Commissions: out,
		Total:       total.StringFixed(2),
	}, nil
}

// Levels 层级比例配置
func (s *ReferralService) Levels(ctx context.Context) ([]dto.ReferralLevelResponse, error) {
	var levels []model.ReferralLevel
	if err := database.DB().WithContext(ctx).
		Where("enabled = ?", true).
		Order("level ASC").
		Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("failed to list referral levels: %w", err)
	}

	out := make([]dto.ReferralLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.ReferralLevelResponse{
			Level:   l.Level,
			Percent: l.Percent.StringFixed(2),
		})
	}
	return out, nil
}

// UpsertLevel 后台调整层级比例
func (s *ReferralService) UpsertLevel(ctx context.Context, req *dto.UpdateReferralLevelRequest) error {
	if req.Level < 1 || req.Level > config.Cfg.ReferralMaxDepth {
		return errors.ReferralLevelInvalid
	}

	percent, err := decimal.NewFromString(req.Percent)
	if err != nil || percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return errors.ReferralLevelInvalid
	}

	level := model.ReferralLevel{Level: req.Level, Percent: percent, Enabled: true}
	if err := database.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "level"}},
			DoUpdates: clause.AssignmentColumns([]string{"percent", "enabled", "updated_at"}),
		}).
		Create(&level).Error; err != nil {
		return fmt.Errorf("failed to upsert referral level: %w", err)
	}
	return nil
}

// AccrueCommissions 分期结清后沿推荐链逐级入账。
// (installment_id, level) 唯一索引保证重复投递不会重复入账。
func (s *ReferralService) AccrueCommissions(ctx context.Context, installmentID int64) error {
	var installment model.Installment
	if err := database.DB().WithContext(ctx).First(&installment, installmentID).Error; err != nil {
		return fmt.Errorf("failed to load installment %d: %w", installmentID, err)
	}
	if installment.Status != model.InstallmentStatusSettled {
		return nil
	}

	var subscription model.Subscription
	if err := database.DB().WithContext(ctx).First(&subscription, installment.SubscriptionID).Error; err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	var levels []model.ReferralLevel
	if err := database.DB().WithContext(ctx).
		Where("enabled = ?", true).
		Order("level ASC").
		Find(&levels).Error; err != nil {
		return fmt.Errorf("failed to load referral levels: %w", err)
	}
	if len(levels) == 0 {
		return nil
	}

	percentByLevel := map[int]decimal.Decimal{}
	for _, l := range levels {
		percentByLevel[l.Level] = l.Percent
	}

	payer, err := Profile().UserByID(ctx, subscription.UserID)
	if err != nil {
		return err
	}

	hundred := decimal.NewFromInt(100)
	cursor := payer.ReferrerID

	for level := 1; level <= config.Cfg.ReferralMaxDepth && cursor != nil; level++ {
		beneficiaryID := *cursor

		var beneficiary model.User
		if err := database.DB().WithContext(ctx).
			Select("id", "referrer_id", "status").
			First(&beneficiary, beneficiaryID).Error; err != nil {
			break
		}
		cursor = beneficiary.ReferrerID

		percent, ok := percentByLevel[level]
		if !ok || beneficiary.Status == model.UserStatusSuspended {
			continue
		}

		amount := installment.Amount.Mul(percent).Div(hundred).Round(2)
		if amount.IsZero() {
			continue
		}

		commission := model.Commission{
			BeneficiaryID: beneficiaryID,
			SourceUserID:  payer.ID,
			InstallmentID: installment.ID,
			Level:         level,
			Amount:        amount,
			Status:        model.CommissionStatusPending,
		}
		result := database.DB().WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&commission)
		if result.Error != nil {
			return fmt.Errorf("failed to create commission: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			continue // 已入账过
		}

		metrics.RecordCommissionAccrued(int64(level))

		if err := cache.MarkDirty(ctx, beneficiaryID, cache.DirtyReferralStats, cache.DirtyTransactions); err != nil {
			logger.Logger.Warn("Failed to mark beneficiary dirty", zap.Error(err))
		}
		if err := queue.PublishReferralStatsRecompute(beneficiaryID, "installment_settled"); err != nil {
			logger.Logger.Warn("Failed to publish recompute for beneficiary", zap.Error(err))
		}
	}

	return nil
}

// RecomputeStats 重算推荐聚合：直推数、全树规模、累计佣金。
// 全树用 BFS 逐层展开，层数上限防御脏数据成环。
func (s *ReferralService) RecomputeStats(ctx context.Context, userID int64) error {
	db := database.DB().WithContext(ctx)

	var directCount int64
	if err := db.Model(&model.User{}).
		Where("referrer_id = ?", userID).
		Count(&directCount).Error; err != nil {
		return fmt.Errorf("failed to count direct referrals: %w", err)
	}

	total := 0
	frontier := []int64{userID}
	for depth := 0; depth < 20 && len(frontier) > 0; depth++ {
		var children []int64
		if err := db.Model(&model.User{}).
			Where("referrer_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return fmt.Errorf("failed to expand referral tree: %w", err)
		}
		total += len(children)
		frontier = children
	}

	var commissionSum decimal.NullDecimal
	if err := db.Model(&model.Commission{}).
		Select("SUM(amount)").
		Where("beneficiary_id = ?", userID).
		Scan(&commissionSum).Error; err != nil {
		return fmt.Errorf("failed to sum commissions: %w", err)
	}
	totalCommission := decimal.Zero
	if commissionSum.Valid {
		totalCommission = commissionSum.Decimal
	}

	now := time.Now()
	stats := model.ReferralStats{
		UserID:          userID,
		DirectReferrals: int(directCount),
		TotalReferrals:  total,
		TotalCommission: totalCommission,
		RecomputedAt:    &now,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"direct_referrals", "total_referrals", "total_commission", "recomputed_at", "updated_at",
		}),
	}).Create(&stats).Error; err != nil {
		return fmt.Errorf("failed to upsert referral stats: %w", err)
	}

	if err := cache.ClearDirty(ctx, userID, cache.DirtyReferralStats); err != nil {
		logger.Logger.Warn("Failed to clear dirty flag", zap.Error(err))
	}
	if err := cache.ReferralStatsProtectedCache.Delete(ctx, strconv.FormatInt(userID, 10)); err != nil {
		logger.Logger.Warn("Failed to invalidate referral stats cache", zap.Error(err))
	}

	return nil
}
