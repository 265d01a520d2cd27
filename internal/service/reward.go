package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Akshayapatra/internal/model"
	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/queue"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/storage/database"
	"Akshayapatra/utils"
)

var (
	rewardOnce    sync.Once
	rewardService *RewardService
)

// RewardService 月度抽奖
type RewardService struct{}

func Reward() *RewardService {
	rewardOnce.Do(func() {
		rewardService = &RewardService{}
	})
	return rewardService
}

// RunDraw 执行某月开奖。month 形如 "2026-08"，空串取上个自然月。
// 候选人为当月结清过分期的用户，种子落库以便复核。
func (s *RewardService) RunDraw(ctx context.Context, month string) (*dto.RewardDrawResponse, error) {
	if month == "" {
		month = utils.PreviousMonth(time.Now())
	}
	monthStart, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, errors.RewardTierInvalid
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	db := database.DB().WithContext(ctx)

	var existing int64
	if err := db.Model(&model.RewardDraw{}).
		Where("month = ?", month).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing draw: %w", err)
	}
	if existing > 0 {
		return nil, errors.DrawAlreadyDone
	}

	var tiers []model.RewardTier
	if err := db.Where("enabled = ?", true).
		Order("rank ASC").
		Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to load reward tiers: %w", err)
	}
	if len(tiers) == 0 {
		return nil, errors.RewardTierInvalid
	}

	// 当月有结清分期的活跃用户才有抽奖资格
	var candidates []int64
	if err := db.Model(&model.Installment{}).
		Distinct("subscriptions.user_id").
		Joins("JOIN subscriptions ON subscriptions.id = installments.subscription_id").
		Joins("JOIN users ON users.id = subscriptions.user_id").
		Where("installments.status = ?", model.InstallmentStatusSettled).
		Where("installments.settled_at >= ? AND installments.settled_at < ?", monthStart, monthEnd).
		Where("users.status = ?", model.UserStatusActive).
		Pluck("subscriptions.user_id", &candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to load draw candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, errors.DrawNoCandidates
	}

	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	now := time.Now()
	draw := model.RewardDraw{Month: month, Seed: seed, DrawnAt: now}
	var winners []model.RewardWinner

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&draw).Error; err != nil {
			return fmt.Errorf("failed to create draw: %w", err)
		}

		cursor := 0
		for _, tier := range tiers {
			for n := 0; n < tier.Quantity && cursor < len(candidates); n++ {
				winner := model.RewardWinner{
					DrawID: draw.ID,
					TierID: tier.ID,
					UserID: candidates[cursor],
				}
				if err := tx.Create(&winner).Error; err != nil {
					return fmt.Errorf("failed to create winner: %w", err)
				}
				winners = append(winners, winner)
				cursor++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, w := range winners {
		if err := queue.PublishRewardWinnerNotify(draw.ID, w.TierID, w.UserID, month); err != nil {
			logger.Logger.Error("Failed to publish winner notify",
				zap.Int64("winner_user_id", w.UserID),
				zap.String("month", month),
				zap.Error(err),
			)
		}
	}

	logger.Logger.Info("Monthly reward draw completed",
		zap.String("month", month),
		zap.Int("candidates", len(candidates)),
		zap.Int("winners", len(winners)),
	)

	return s.Results(ctx, month)
}

// Results 某月开奖结果
func (s *RewardService) Results(ctx context.Context, month string) (*dto.RewardDrawResponse, error) {
	db := database.DB().WithContext(ctx)

	var draw model.RewardDraw
	if err := db.Where("month = ?", month).First(&draw).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.DrawNoCandidates
		}
		return nil, fmt.Errorf("failed to load draw: %w", err)
	}

	var winners []model.RewardWinner
	if err := db.Where("draw_id = ?", draw.ID).
		Order("id ASC").
		Find(&winners).Error; err != nil {
		return nil, fmt.Errorf("failed to load winners: %w", err)
	}

	tierByID := map[int64]model.RewardTier{}
	userByID := map[int64]model.User{}
	{
		var tiers []model.RewardTier
		if err := db.Find(&tiers).Error; err != nil {
			return nil, fmt.Errorf("failed to load tiers: %w", err)
		}
		for _, t := range tiers {
			tierByID[t.ID] = t
		}

		userIDs := make([]int64, 0, len(winners))
		for _, w := range winners {
			userIDs = append(userIDs, w.UserID)
		}
		if len(userIDs) > 0 {
			var users []model.User
			if err := db.Select("id", "public_id", "full_name").
				Where("id IN ?", userIDs).
				Find(&users).Error; err != nil {
				return nil, fmt.Errorf("failed to load winner users: %w", err)
			}
			for _, u := range users {
				userByID[u.ID] = u
			}
		}
	}

	out := make([]dto.RewardWinnerResponse, 0, len(winners))
	for _, w := range winners {
		tier := tierByID[w.TierID]
		user := userByID[w.UserID]
		out = append(out, dto.RewardWinnerResponse{
			UserID:   strconv.FormatInt(user.PublicID, 10),
			FullName: user.FullName,
			TierName: tier.Name,
			Rank:     tier.Rank,
		})
	}

	return &dto.RewardDrawResponse{
		Month:   draw.Month,
		DrawnAt: draw.DrawnAt,
		Winners: out,
	}, nil
}

// Tiers 奖项配置
func (s *RewardService) Tiers(ctx context.Context) ([]dto.RewardTierResponse, error) {
	var tiers []model.RewardTier
	if err := database.DB().WithContext(ctx).
		Where("enabled = ?", true).
		Order("rank ASC").
		Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to list reward tiers: %w", err)
	}

	out := make([]dto.RewardTierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, dto.RewardTierResponse{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.PrizeDesc,
			WinnerCount: t.Quantity,
			Rank:        t.Rank,
		})
	}
	return out, nil
}

// UpsertTier 后台维护奖项，rank 唯一索引保证幂等覆盖
func (s *RewardService) UpsertTier(ctx context.Context, req *dto.UpsertRewardTierRequest) error {
	if req.Rank < 1 {
		return errors.RewardTierInvalid
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	tier := model.RewardTier{
		Name:      req.Name,
		Rank:      req.Rank,
		PrizeDesc: req.PrizeDesc,
		Quantity:  quantity,
		Enabled:   enabled,
	}
	if err := database.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "rank"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "prize_desc", "quantity", "enabled", "updated_at"}),
		}).
		Create(&tier).Error; err != nil {
		return fmt.Errorf("failed to upsert reward tier: %w", err)
	}
	return nil
}

// MarkWinnerNotified 中奖通知送达后置位
func (s *RewardService) MarkWinnerNotified(ctx context.Context, drawID, tierID, userID int64) error {
	return database.DB().WithContext(ctx).
		Model(&model.RewardWinner{}).
		Where("draw_id = ? AND tier_id = ? AND user_id = ?", drawID, tierID, userID).
		Update("notified", true).Error
}
