package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType 支付用途
type PaymentType string

const (
	PaymentTypeRegistrationFee PaymentType = "registration_fee"
	PaymentTypeInstallment     PaymentType = "installment"
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusSettled   PaymentStatus = "settled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment 网关支付单
type Payment struct {
	BaseModel
	UserID        int64           `gorm:"not null;index" json:"user_id"`
	TransactionID string          `gorm:"uniqueIndex;type:varchar(64);not null" json:"transaction_id"` // 对外交易号
	Type          PaymentType     `gorm:"type:varchar(24);not null;index" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status        PaymentStatus   `gorm:"type:varchar(16);not null;default:'initiated';index" json:"status"`
	Method        string          `gorm:"type:varchar(32);not null;default:''" json:"method"` // upi, card, netbanking...
	GatewayRef    string          `gorm:"type:varchar(128);not null;default:''" json:"gateway_ref"`
	SettledAt     *time.Time      `json:"settled_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// PaymentReceipt 合成回执，仅用于展示，不落库。
// 网关回跳未携带交易号时由服务端补发一个。
type PaymentReceipt struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	PaymentType   string `json:"payment_type"`
	Timestamp     string `json:"timestamp"`
	UserName      string `json:"user_name"`
	UserPhone     string `json:"user_phone"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`

	SchemeID *int64 `json:"scheme_id,omitempty"`
	Period   *int   `json:"period,omitempty"`
}
