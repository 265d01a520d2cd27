package queue

import (
	"time"

	"go.uber.org/zap"

	"Akshayapatra/internal/model"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/metrics"
	"Akshayapatra/pkg/snowflake"
	"Akshayapatra/storage/mq"
)

// 业务事件发布。MessageID 用 snowflake 生成，消费侧据此做幂等。

// PublishReferralStatsRecompute 投递推荐聚合重算任务
func PublishReferralStatsRecompute(userID int64, reason string) error {
	msgID, err := snowflake.NextStringID()
	if err != nil {
		return err
	}

	msg := model.ReferralStatsRecomputeMessage{
		MessageID: msgID,
		UserID:    userID,
		Reason:    reason,
	}

	if err := mq.PublishMessage(ExchangeEvents, RoutingKeyReferralRecompute, msg); err != nil {
		logger.Logger.Error("Failed to publish referral recompute message",
			zap.Int64("user_id", userID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return err
	}

	metrics.UpdateQueueLength(QueueReferralRecompute, 1)
	return nil
}

// PublishPaymentSettled 投递支付结清事件
func PublishPaymentSettled(payment *model.Payment) error {
	msgID, err := snowflake.NextStringID()
	if err != nil {
		return err
	}

	settledAt := ""
	if payment.SettledAt != nil {
		settledAt = payment.SettledAt.UTC().Format(time.RFC3339)
	}

	msg := model.PaymentSettledMessage{
		MessageID:     msgID,
		PaymentID:     payment.ID,
		UserID:        payment.UserID,
		PaymentType:   string(payment.Type),
		TransactionID: payment.TransactionID,
		SettledAt:     settledAt,
	}

	if err := mq.PublishMessage(ExchangeEvents, RoutingKeyPaymentSettled, msg); err != nil {
		return err
	}

	metrics.UpdateQueueLength(QueuePaymentSettled, 1)
	return nil
}

// PublishRewardWinnerNotify 投递中奖通知任务
func PublishRewardWinnerNotify(drawID, tierID, userID int64, month string) error {
	msgID, err := snowflake.NextStringID()
	if err != nil {
		return err
	}

	msg := model.RewardWinnerNotifyMessage{
		MessageID: msgID,
		DrawID:    drawID,
		TierID:    tierID,
		UserID:    userID,
		Month:     month,
	}

	if err := mq.PublishMessage(ExchangeEvents, RoutingKeyRewardNotify, msg); err != nil {
		return err
	}

	metrics.UpdateQueueLength(QueueRewardNotify, 1)
	return nil
}

// PublishInstallmentReminder 投递分期到期提醒（延迟消息）
func PublishInstallmentReminder(batchID, dueDate string, userIDs []int64, delay time.Duration) error {
	msgID, err := snowflake.NextStringID()
	if err != nil {
		return err
	}

	msg := model.InstallmentReminderMessage{
		MessageID:    msgID,
		BatchID:      batchID,
		DueDate:      dueDate,
		UserIDs:      userIDs,
		DelaySeconds: int(delay.Seconds()),
	}

	if err := mq.PublishDelayedMessage(ExchangeDelayed, RoutingKeyInstallmentReminder, delay, msg); err != nil {
		return err
	}

	metrics.UpdateQueueLength(QueueInstallmentReminder, 1)
	return nil
}
