package dto

// ========== 引导流程相关 DTO ==========

// SetupInitRequest 引导初始化请求
type SetupInitRequest struct {
	ReferralCode string `json:"referral_code,omitempty"` // 链接里带的推荐码提示
	SchemeID     int64  `json:"scheme_id,omitempty"`
}

// SetupStateResponse 引导当前状态
type SetupStateResponse struct {
	Status      string `json:"status"` // loading / active / redirecting
	Step        string `json:"step"`   // 当前步骤 token
	StepIndex   int    `json:"step_index"`
	Steps       []int  `json:"steps"` // 本次会话的步骤映射（步骤码）
	Loading     bool   `json:"loading"`
	FeeRequired bool   `json:"fee_required"`
}

// SetupAdvanceRequest 步进请求，step_index 为刚完成的步骤下标
type SetupAdvanceRequest struct {
	StepIndex int `json:"step_index"`
}

// SetupAdvanceResponse 步进结果
type SetupAdvanceResponse struct {
	Status    string `json:"status"`
	Step      string `json:"step"`
	StepIndex int    `json:"step_index"`
	Completed bool   `json:"completed"`
}

// SetupLocationRequest 位置步骤提交
type SetupLocationRequest struct {
	Country  string `json:"country" binding:"required"`
	State    string `json:"state" binding:"required"`
	District string `json:"district" binding:"required"`
}

// SetupAddressRequest 地址步骤提交
type SetupAddressRequest struct {
	StreetAddress string `json:"street_address" binding:"required"`
}

// SetupProfileRequest 资料步骤提交
type SetupProfileRequest struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone,omitempty"` // 注册时已绑定则留空
	SchemeID     int64  `json:"scheme_id,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// SetupPaymentReturnResponse 支付回跳处理结果
type SetupPaymentReturnResponse struct {
	Outcome  string          `json:"outcome"` // none / success / failed
	Receipt  *PaymentReceipt `json:"receipt,omitempty"`
	CleanURL string          `json:"clean_url"`
}

// PaymentReceipt 展示用回执，仅用于成功页渲染
type PaymentReceipt struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	PaidAt        string `json:"paid_at"`
	SchemeID      int64  `json:"scheme_id,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
}
