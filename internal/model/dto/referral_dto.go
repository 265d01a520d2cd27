package dto

import "time"

// ========== 推荐体系相关 DTO ==========

// AttachReferralRequest 绑定推荐人请求
type AttachReferralRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
}

// ReferralStatsResponse 推荐聚合信息
type ReferralStatsResponse struct {
	ReferralCode     string    `json:"referral_code"`
	DirectCount      int       `json:"direct_count"`
	TeamCount        int       `json:"team_count"`
	TotalCommission  string    `json:"total_commission"`
	PendingRecompute bool      `json:"pending_recompute"` // 有脏标记时为 true
	UpdatedAt        time.Time `json:"updated_at"`
}

// CommissionResponse 单笔佣金
type CommissionResponse struct {
	ID            int64     `json:"id"`
	Level         int       `json:"level"`
	Amount        string    `json:"amount"`
	FromUserID    string    `json:"from_user_id"`
	InstallmentID int64     `json:"installment_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// CommissionListResponse 佣金流水
type CommissionListResponse struct {
	Commissions []CommissionResponse `json:"commissions"`
	Total       string               `json:"total"`
}

// ReferralLevelResponse 层级返佣比例配置
type ReferralLevelResponse struct {
	Level   int    `json:"level"`
	Percent string `json:"percent"`
}

// UpdateReferralLevelRequest 后台调整层级比例请求
type UpdateReferralLevelRequest struct {
	Level   int    `json:"level" binding:"required"`
	Percent string `json:"percent" binding:"required"`
}
