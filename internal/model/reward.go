package model

import "time"

// RewardTier 管理员配置的月度奖项
type RewardTier struct {
	BaseModel
	Name      string `gorm:"type:varchar(128);not null" json:"name"`
	Rank      int    `gorm:"uniqueIndex;not null" json:"rank"` // 1 为头奖
	PrizeDesc string `gorm:"type:text;not null;default:''" json:"prize_desc"`
	Quantity  int    `gorm:"not null;default:1" json:"quantity"` // 本奖项每月名额
	Enabled   bool   `gorm:"not null;default:true" json:"enabled"`
}

func (RewardTier) TableName() string {
	return "reward_tiers"
}

// RewardDraw 一次月度开奖
type RewardDraw struct {
	BaseModel
	Month   string    `gorm:"uniqueIndex;type:char(7);not null" json:"month"` // "2026-08"
	Seed    int64     `gorm:"not null" json:"seed"`                           // 记录随机种子以便复核
	DrawnAt time.Time `gorm:"not null" json:"drawn_at"`
}

func (RewardDraw) TableName() string {
	return "reward_draws"
}

// RewardWinner 开奖结果
type RewardWinner struct {
	BaseModel
	DrawID   int64 `gorm:"not null;index:idx_winner_draw_tier_user,unique" json:"draw_id"`
	TierID   int64 `gorm:"not null;index:idx_winner_draw_tier_user,unique" json:"tier_id"`
	UserID   int64 `gorm:"not null;index:idx_winner_draw_tier_user,unique" json:"user_id"`
	Notified bool  `gorm:"not null;default:false" json:"notified"`
}

func (RewardWinner) TableName() string {
	return "reward_winners"
}
