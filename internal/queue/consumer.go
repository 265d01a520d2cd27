package queue

import (
	"go.uber.org/zap"

	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/metrics"
	"Akshayapatra/storage/mq"
)

// Handlers worker 侧的消息处理函数集合，由 cmd/worker 装配，
// 避免 queue 包反向依赖 service 包。
type Handlers struct {
	ReferralRecompute   mq.MessageHandler
	PaymentSettled      mq.MessageHandler
	RewardWinnerNotify  mq.MessageHandler
	InstallmentReminder mq.MessageHandler
}

// StartConsumers 逐队列起消费 goroutine。Consume 内部阻塞循环，
// 返回即视为通道挂掉，记日志后退出由进程管理器重启。
func StartConsumers(h Handlers) {
	specs := []mq.ConsumeOptions{
		{Queue: QueueReferralRecompute, ConsumerTag: "referral-recompute", PrefetchCount: 8, Handler: h.ReferralRecompute},
		{Queue: QueuePaymentSettled, ConsumerTag: "payment-settled", PrefetchCount: 8, Handler: h.PaymentSettled},
		{Queue: QueueRewardNotify, ConsumerTag: "reward-notify", PrefetchCount: 4, Handler: h.RewardWinnerNotify},
		{Queue: QueueInstallmentReminder, ConsumerTag: "installment-reminder", PrefetchCount: 4, Handler: h.InstallmentReminder},
	}

	for _, spec := range specs {
		if spec.Handler == nil {
			continue
		}
		spec.Handler = withQueueGauge(spec.Queue, spec.Handler)
		go func(opts mq.ConsumeOptions) {
			if err := mq.Consume(opts); err != nil {
				logger.Logger.Error("Consumer exited",
					zap.String("queue", opts.Queue),
					zap.Error(err),
				)
			}
		}(spec)
	}
}

// withQueueGauge 处理成功后回落队列长度水位
func withQueueGauge(queue string, next mq.MessageHandler) mq.MessageHandler {
	return func(body []byte) error {
		if err := next(body); err != nil {
			return err
		}
		metrics.UpdateQueueLength(queue, -1)
		return nil
	}
}
