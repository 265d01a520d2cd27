package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemeStatus 方案状态
type SchemeStatus string

const (
	SchemeStatusDraft  SchemeStatus = "draft"
	SchemeStatusActive SchemeStatus = "active"
	SchemeStatusClosed SchemeStatus = "closed"
)

// Scheme 订阅方案，按期缴纳固定金额
type Scheme struct {
	BaseModel
	Name              string          `gorm:"type:varchar(128);not null" json:"name"`
	Description       string          `gorm:"type:text;not null;default:''" json:"description"`
	Status            SchemeStatus    `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	TotalPeriods      int             `gorm:"not null" json:"total_periods"`                                  // 总期数
	PeriodDays        int             `gorm:"not null;default:30" json:"period_days"`                         // 每期间隔天数
	InstallmentAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"installment_amount"`          // 每期金额
	CommissionPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"commission_percent"` // 一级佣金比例
}

func (Scheme) TableName() string {
	return "schemes"
}

// SubscriptionStatus 订阅状态
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
	SubscriptionStatusDefaulted SubscriptionStatus = "defaulted" // 连续欠缴
)

// Subscription 用户对某方案的订阅
type Subscription struct {
	BaseModel
	UserID   int64              `gorm:"not null;index:idx_sub_user_scheme,unique" json:"user_id"`
	SchemeID int64              `gorm:"not null;index:idx_sub_user_scheme,unique" json:"scheme_id"`
	Status   SubscriptionStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	StartAt  time.Time          `gorm:"not null" json:"start_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// InstallmentStatus 分期状态
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusSettled InstallmentStatus = "settled"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
)

// Installment 订阅下的单期应缴记录，订阅创建时整表生成
type Installment struct {
	BaseModel
	SubscriptionID int64             `gorm:"not null;index:idx_inst_sub_period,unique" json:"subscription_id"`
	Period         int               `gorm:"not null;index:idx_inst_sub_period,unique" json:"period"` // 第几期，从 1 起
	Amount         decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	DueAt          time.Time         `gorm:"not null;index" json:"due_at"`
	Status         InstallmentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	SettledAt      *time.Time        `json:"settled_at"`
	PaymentID      *int64            `gorm:"index" json:"payment_id"` // 结算该期的支付单
}

func (Installment) TableName() string {
	return "installments"
}
