package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Akshayapatra/internal/cache"
	"Akshayapatra/internal/model"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/sms"
	"Akshayapatra/storage/database"
	"Akshayapatra/utils"
)

// worker 侧消息处理。返回 error 表示 nack 重入队，
// 所以不可恢复的消息（解析失败、幂等命中）一律 ack 吞掉。

const consumerDedupTTL = 24 * time.Hour

// dedup 按 MessageID 去重，抢到锁才处理
func dedup(ctx context.Context, messageID string) bool {
	if messageID == "" {
		return true
	}
	ok, err := cache.TryLock(ctx, "mq:"+messageID, consumerDedupTTL)
	if err != nil {
		logger.Logger.Warn("Consumer dedup check failed, processing anyway",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return true
	}
	return ok
}

// HandleReferralRecompute 推荐聚合重算
func HandleReferralRecompute(body []byte) error {
	ctx := context.Background()

	var msg model.ReferralStatsRecomputeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Logger.Error("Malformed referral recompute message", zap.Error(err))
		return nil
	}
	if !dedup(ctx, msg.MessageID) {
		return nil
	}

	if err := Referral().RecomputeStats(ctx, msg.UserID); err != nil {
		logger.Logger.Error("Referral stats recompute failed",
			zap.Int64("user_id", msg.UserID),
			zap.String("reason", msg.Reason),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// HandlePaymentSettled 支付结清事件：分期类支付逐期入账佣金
func HandlePaymentSettled(body []byte) error {
	ctx := context.Background()

	var msg model.PaymentSettledMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Logger.Error("Malformed payment settled message", zap.Error(err))
		return nil
	}
	if !dedup(ctx, msg.MessageID) {
		return nil
	}

	if msg.PaymentType != string(model.PaymentTypeInstallment) {
		return nil
	}

	installmentIDs, err := Payment().SettledInstallmentIDs(ctx, msg.PaymentID)
	if err != nil {
		return err
	}

	for _, id := range installmentIDs {
		if err := Referral().AccrueCommissions(ctx, id); err != nil {
			logger.Logger.Error("Commission accrual failed",
				zap.Int64("installment_id", id),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// HandleRewardWinnerNotify 中奖短信通知
func HandleRewardWinnerNotify(body []byte) error {
	ctx := context.Background()

	var msg model.RewardWinnerNotifyMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Logger.Error("Malformed winner notify message", zap.Error(err))
		return nil
	}
	if !dedup(ctx, msg.MessageID) {
		return nil
	}

	user, err := Profile().UserByID(ctx, msg.UserID)
	if err != nil {
		return err
	}
	if len(user.PhoneCipher) == 0 {
		logger.Logger.Warn("Winner has no phone bound, skipping notification",
			zap.Int64("user_id", msg.UserID),
		)
		return nil
	}

	phone, err := utils.DecryptPhone(string(user.PhoneCipher))
	if err != nil {
		logger.Logger.Error("Failed to decrypt winner phone", zap.Error(err))
		return nil
	}

	var tier model.RewardTier
	if err := database.DB().WithContext(ctx).First(&tier, msg.TierID).Error; err != nil {
		return fmt.Errorf("failed to load tier: %w", err)
	}

	if err := sms.SendRewardNotification(ctx, phone, msg.Month, tier.Name); err != nil {
		logger.Logger.Error("Failed to send winner sms",
			zap.Int64("user_id", msg.UserID),
			zap.Error(err),
		)
		return err
	}

	return Reward().MarkWinnerNotified(ctx, msg.DrawID, msg.TierID, msg.UserID)
}

// HandleInstallmentReminder 分期到期提醒批次
func HandleInstallmentReminder(body []byte) error {
	ctx := context.Background()

	var msg model.InstallmentReminderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Logger.Error("Malformed installment reminder message", zap.Error(err))
		return nil
	}
	if !dedup(ctx, msg.MessageID) {
		return nil
	}

	phones := make([]string, 0, len(msg.UserIDs))
	amounts := make([]string, 0, len(msg.UserIDs))

	for _, userID := range msg.UserIDs {
		user, err := Profile().UserByID(ctx, userID)
		if err != nil {
			logger.Logger.Warn("Reminder: user load failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		if len(user.PhoneCipher) == 0 {
			continue
		}
		phone, err := utils.DecryptPhone(string(user.PhoneCipher))
		if err != nil {
			continue
		}

		amount, err := Schedule().DueAmount(ctx, userID, msg.DueDate)
		if err != nil {
			logger.Logger.Warn("Reminder: due amount lookup failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			continue
		}

		phones = append(phones, phone)
		amounts = append(amounts, amount)
	}

	if len(phones) == 0 {
		return nil
	}

	if err := sms.SendBatchInstallmentReminder(ctx, phones, amounts); err != nil {
		logger.Logger.Error("Failed to send reminder batch",
			zap.String("batch_id", msg.BatchID),
			zap.Int("recipients", len(phones)),
			zap.Error(err),
		)
		return err
	}
	return nil
}
