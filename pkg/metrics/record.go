package metrics

import "context"

// 包级便捷函数，指标未初始化时静默跳过。

func RecordPaymentInitiated(paymentType string, duration float64) {
	if m := GetMetrics(); m != nil {
		m.RecordPaymentInitiated(context.Background(), paymentType, duration)
	}
}

func RecordPaymentSettled(paymentType, status string, amount float64) {
	if m := GetMetrics(); m != nil {
		m.RecordPaymentSettled(context.Background(), paymentType, status, amount)
	}
}

func RecordSetupAdvance(step string) {
	if m := GetMetrics(); m != nil {
		m.RecordSetupAdvance(context.Background(), step)
	}
}

func RecordSetupCompleted() {
	if m := GetMetrics(); m != nil {
		m.RecordSetupCompleted(context.Background())
	}
}

func RecordCommissionAccrued(level int64) {
	if m := GetMetrics(); m != nil {
		m.RecordCommissionAccrued(context.Background(), level)
	}
}

func RecordSMSSent(template, provider, status string, duration float64) {
	if m := GetMetrics(); m != nil {
		m.RecordSMSSent(context.Background(), template, provider, status, duration)
	}
}

func UpdateQueueLength(queueName string, delta int64) {
	if m := GetMetrics(); m != nil {
		m.UpdateQueueLength(context.Background(), queueName, delta)
	}
}
