package dto

import "time"

// ========== 方案/订阅相关 DTO ==========

// SchemeResponse 方案详情
type SchemeResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	InstallmentAmount string `json:"installment_amount"`
	TotalPeriods      int    `json:"total_periods"`
	CommissionPercent string `json:"commission_percent"`
	Active            bool   `json:"active"`
}

// SchemeListResponse 方案列表
type SchemeListResponse struct {
	Schemes []SchemeResponse `json:"schemes"`
}

// SubscribeRequest 订阅方案请求
type SubscribeRequest struct {
	SchemeID int64 `json:"scheme_id" binding:"required"`
}

// SubscriptionResponse 订阅详情
type SubscriptionResponse struct {
	ID            int64      `json:"id"`
	SchemeID      int64      `json:"scheme_id"`
	SchemeName    string     `json:"scheme_name"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	PaidPeriods   int        `json:"paid_periods"`
	TotalPeriods  int        `json:"total_periods"`
	NextDueAt     *time.Time `json:"next_due_at,omitempty"`
	NextDueAmount string     `json:"next_due_amount,omitempty"`
}

// InstallmentResponse 分期详情
type InstallmentResponse struct {
	ID             int64      `json:"id"`
	SubscriptionID int64      `json:"subscription_id"`
	Period         int        `json:"period"`
	Amount         string     `json:"amount"`
	Status         string     `json:"status"` // pending / due / settled
	DueAt          time.Time  `json:"due_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
}

// CartResponse 待缴分期购物车
type CartResponse struct {
	Items []InstallmentResponse `json:"items"`
	Total string                `json:"total"`
}

// CartAddRequest 加入购物车请求
type CartAddRequest struct {
	InstallmentID int64 `json:"installment_id" binding:"required"`
}

// CartCheckoutResponse 购物车结算响应
type CartCheckoutResponse struct {
	RedirectURL   string `json:"redirect_url"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

// CreateSchemeRequest 后台创建方案请求
type CreateSchemeRequest struct {
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	InstallmentAmount string `json:"installment_amount" binding:"required"`
	TotalPeriods      int    `json:"total_periods" binding:"required"`
	CommissionPercent string `json:"commission_percent"`
}
