package dto

import "time"

// ========== 支付相关 DTO ==========

// InitiatePaymentRequest 发起支付请求
type InitiatePaymentRequest struct {
	Purpose       string `json:"purpose" binding:"required"` // registration_fee / installment
	InstallmentID int64  `json:"installment_id,omitempty"`
	SchemeID      int64  `json:"scheme_id,omitempty"`
}

// InitiatePaymentResponse 发起支付响应
type InitiatePaymentResponse struct {
	RedirectURL   string `json:"redirect_url"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

// PaymentCallbackRequest 网关异步回调
type PaymentCallbackRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Status        string `json:"status" binding:"required"` // success / failed
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	GatewayRef    string `json:"gateway_ref"`
	Signature     string `json:"signature" binding:"required"`
}

// PaymentResponse 支付记录
type PaymentResponse struct {
	ID            int64      `json:"id"`
	TransactionID string     `json:"transaction_id"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	Method        string     `json:"method,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
}

// PaymentListResponse 支付流水
type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
}
