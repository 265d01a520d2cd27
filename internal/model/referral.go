package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralLevel 管理员配置的层级佣金比例，Level 从 1（直推）起
type ReferralLevel struct {
	BaseModel
	Level   int             `gorm:"uniqueIndex;not null" json:"level"`
	Percent decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percent"`
	Enabled bool            `gorm:"not null;default:true" json:"enabled"`
}

func (ReferralLevel) TableName() string {
	return "referral_levels"
}

// CommissionStatus 佣金状态
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending" // 已入账待发放
	CommissionStatusPaid    CommissionStatus = "paid"
)

// Commission 单笔佣金流水，分期结清时按层级比例写入
type Commission struct {
	BaseModel
	BeneficiaryID int64            `gorm:"not null;index" json:"beneficiary_id"` // 受益人（上级）
	SourceUserID  int64            `gorm:"not null;index" json:"source_user_id"` // 产生佣金的下级
	InstallmentID int64            `gorm:"not null;index:idx_comm_inst_level,unique" json:"installment_id"`
	Level         int              `gorm:"not null;index:idx_comm_inst_level,unique" json:"level"`
	Amount        decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status        CommissionStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	PaidAt        *time.Time       `json:"paid_at"`
}

func (Commission) TableName() string {
	return "commissions"
}

// ReferralStats 用户推荐聚合，worker 异步重算
type ReferralStats struct {
	BaseModel
	UserID          int64           `gorm:"uniqueIndex;not null" json:"user_id"`
	DirectReferrals int             `gorm:"not null;default:0" json:"direct_referrals"`
	TotalReferrals  int             `gorm:"not null;default:0" json:"total_referrals"` // 全树规模
	TotalCommission decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_commission"`
	RecomputedAt    *time.Time      `json:"recomputed_at"`
}

func (ReferralStats) TableName() string {
	return "referral_stats"
}
