package dto

import "time"

// ========== 月度抽奖相关 DTO ==========

// RewardTierResponse 奖励档位
type RewardTierResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	WinnerCount int    `json:"winner_count"`
	Rank        int    `json:"rank"`
}

// RewardDrawResponse 某月开奖结果
type RewardDrawResponse struct {
	Month   string                 `json:"month"` // YYYY-MM
	DrawnAt time.Time              `json:"drawn_at"`
	Winners []RewardWinnerResponse `json:"winners"`
}

// RewardWinnerResponse 中奖记录
type RewardWinnerResponse struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	TierName string `json:"tier_name"`
	Rank     int    `json:"rank"`
}

// RunDrawRequest 后台手动触发开奖
type RunDrawRequest struct {
	Month string `json:"month,omitempty"` // 缺省为上个自然月
}

// UpsertRewardTierRequest 后台维护奖项，按 rank 幂等覆盖
type UpsertRewardTierRequest struct {
	Name      string `json:"name" binding:"required"`
	Rank      int    `json:"rank" binding:"required"`
	PrizeDesc string `json:"prize_desc"`
	Quantity  int    `json:"quantity"` // 缺省 1
	Enabled   *bool  `json:"enabled"`  // 缺省启用
}
