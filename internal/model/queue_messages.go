package model

// ReferralStatsRecomputeMessage 推荐聚合重算任务
type ReferralStatsRecomputeMessage struct {
	MessageID string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	UserID    int64  `json:"user_id"`
	Reason    string `json:"reason"` // referral_attached, installment_settled...
}

// PaymentSettledMessage 支付结清事件，worker 据此写佣金并标脏
type PaymentSettledMessage struct {
	MessageID     string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	PaymentID     int64  `json:"payment_id"`
	UserID        int64  `json:"user_id"`
	PaymentType   string `json:"payment_type"`
	TransactionID string `json:"transaction_id"`
	SettledAt     string `json:"settled_at"`
}

// RewardWinnerNotifyMessage 中奖通知任务
type RewardWinnerNotifyMessage struct {
	MessageID string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	DrawID    int64  `json:"draw_id"`
	TierID    int64  `json:"tier_id"`
	UserID    int64  `json:"user_id"`
	Month     string `json:"month"`
}

// InstallmentReminderMessage 分期到期提醒（延迟消息）
type InstallmentReminderMessage struct {
	MessageID    string  `json:"message_id"` // 消息唯一ID，用于幂等性检查
	BatchID      string  `json:"batch_id"`
	DueDate      string  `json:"due_date"`
	UserIDs      []int64 `json:"user_ids"`
	DelaySeconds int     `json:"delay_seconds"`
}

// EventMessage 事件消息（用于事件总线）
type EventMessage struct {
	Payload    map[string]interface{} `json:"payload"`
	EventKey   string                 `json:"event_key"`
	EventType  string                 `json:"event_type"`
	OccurredAt string                 `json:"occurred_at"`
}
