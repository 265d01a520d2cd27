package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 支付相关指标
	PaymentInitiatedTotal metric.Int64Counter
	PaymentSettledTotal   metric.Int64Counter
	PaymentAmountTotal    metric.Float64Counter
	PaymentDuration       metric.Float64Histogram

	// 引导流程漏斗指标
	SetupStepAdvanceTotal metric.Int64Counter
	SetupCompletedTotal   metric.Int64Counter

	// 佣金指标
	CommissionAccruedTotal metric.Int64Counter

	// 短信指标
	SMSSentTotal    metric.Int64Counter
	SMSSendDuration metric.Float64Histogram

	// 队列指标
	QueueLength metric.Int64UpDownCounter
}

var (
	metrics *OTelMetrics
	meter   = otel.Meter("akshayapatra")
)

// InitMetrics 初始化 OpenTelemetry 指标
func InitMetrics() error {
	var err error

	metrics = &OTelMetrics{}

	metrics.PaymentInitiatedTotal, err = meter.Int64Counter(
		"payment_initiated_total",
		metric.WithDescription("Total number of payment orders initiated"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return err
	}

	metrics.PaymentSettledTotal, err = meter.Int64Counter(
		"payment_settled_total",
		metric.WithDescription("Total number of payments settled"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return err
	}

	metrics.PaymentAmountTotal, err = meter.Float64Counter(
		"payment_amount_inr_total",
		metric.WithDescription("Total settled payment amount in INR"),
		metric.WithUnit("{inr}"),
	)
	if err != nil {
		return err
	}

	metrics.PaymentDuration, err = meter.Float64Histogram(
		"payment_gateway_duration_seconds",
		metric.WithDescription("Time spent calling the payment gateway in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics.SetupStepAdvanceTotal, err = meter.Int64Counter(
		"setup_step_advance_total",
		metric.WithDescription("Total number of setup wizard step transitions"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return err
	}

	metrics.SetupCompletedTotal, err = meter.Int64Counter(
		"setup_completed_total",
		metric.WithDescription("Total number of completed setup wizards"),
		metric.WithUnit("{wizard}"),
	)
	if err != nil {
		return err
	}

	metrics.CommissionAccruedTotal, err = meter.Int64Counter(
		"commission_accrued_total",
		metric.WithDescription("Total number of commissions accrued"),
		metric.WithUnit("{commission}"),
	)
	if err != nil {
		return err
	}

	metrics.SMSSentTotal, err = meter.Int64Counter(
		"sms_sent_total",
		metric.WithDescription("Total number of SMS sent"),
		metric.WithUnit("{sms}"),
	)
	if err != nil {
		return err
	}

	metrics.SMSSendDuration, err = meter.Float64Histogram(
		"sms_send_duration_seconds",
		metric.WithDescription("Time spent sending SMS in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics.QueueLength, err = meter.Int64UpDownCounter(
		"queue_length",
		metric.WithDescription("Number of messages pending in a worker queue"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetMetrics 获取全局指标实例
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordPaymentInitiated 记录支付下单
func (m *OTelMetrics) RecordPaymentInitiated(ctx context.Context, paymentType string, duration float64) {
	m.PaymentInitiatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", paymentType),
	))
	m.PaymentDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("type", paymentType),
	))
}

// RecordPaymentSettled 记录支付落账
func (m *OTelMetrics) RecordPaymentSettled(ctx context.Context, paymentType, status string, amount float64) {
	m.PaymentSettledTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", paymentType),
		attribute.String("status", status),
	))
	if status == "success" {
		m.PaymentAmountTotal.Add(ctx, amount, metric.WithAttributes(
			attribute.String("type", paymentType),
		))
	}
}

// RecordSetupAdvance 记录引导步进
func (m *OTelMetrics) RecordSetupAdvance(ctx context.Context, step string) {
	m.SetupStepAdvanceTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", step),
	))
}

// RecordSetupCompleted 记录引导完成
func (m *OTelMetrics) RecordSetupCompleted(ctx context.Context) {
	m.SetupCompletedTotal.Add(ctx, 1)
}

// RecordCommissionAccrued 记录佣金入账
func (m *OTelMetrics) RecordCommissionAccrued(ctx context.Context, level int64) {
	m.CommissionAccruedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int64("level", level),
	))
}

// RecordSMSSent 记录短信发送
func (m *OTelMetrics) RecordSMSSent(ctx context.Context, template, provider, status string, duration float64) {
	m.SMSSentTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("template", template),
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
	m.SMSSendDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("template", template),
		attribute.String("provider", provider),
	))
}

// UpdateQueueLength 更新队列长度
func (m *OTelMetrics) UpdateQueueLength(ctx context.Context, queueName string, delta int64) {
	m.QueueLength.Add(ctx, delta, metric.WithAttributes(
		attribute.String("queue_name", queueName),
	))
}
