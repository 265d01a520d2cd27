package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Akshayapatra/internal/model"
	"Akshayapatra/internal/queue"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/snowflake"
	"Akshayapatra/storage/database"
)

var (
	scheduleOnce    sync.Once
	scheduleService *ScheduleService
)

// ScheduleService 定时任务的业务入口：到期提醒扫描与月度开奖触发
type ScheduleService struct{}

func Schedule() *ScheduleService {
	scheduleOnce.Do(func() {
		scheduleService = &ScheduleService{}
	})
	return scheduleService
}

const reminderBatchSize = 200

// ScanDueReminders 扫描 daysAhead 天后到期的未缴分期，
// 按批投递延迟提醒消息，发送时间打散在一小时内避免触达洪峰。
func (s *ScheduleService) ScanDueReminders(ctx context.Context, daysAhead int) error {
	dayStart := time.Now().AddDate(0, 0, daysAhead).Truncate(24 * time.Hour)
	dayEnd := dayStart.AddDate(0, 0, 1)
	dueDate := dayStart.Format("2006-01-02")

	var userIDs []int64
	if err := database.DB().WithContext(ctx).
		Model(&model.Installment{}).
		Distinct("subscriptions.user_id").
		Joins("JOIN subscriptions ON subscriptions.id = installments.subscription_id").
		Where("installments.status = ?", model.InstallmentStatusPending).
		Where("installments.due_at >= ? AND installments.due_at < ?", dayStart, dayEnd).
		Pluck("subscriptions.user_id", &userIDs).Error; err != nil {
		return fmt.Errorf("failed to scan due installments: %w", err)
	}

	if len(userIDs) == 0 {
		return nil
	}

	batchID, err := snowflake.NextStringID()
	if err != nil {
		return err
	}

	batches := 0
	for start := 0; start < len(userIDs); start += reminderBatchSize {
		end := start + reminderBatchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}

		delay := time.Duration(batches) * 5 * time.Minute
		if err := queue.PublishInstallmentReminder(batchID, dueDate, userIDs[start:end], delay); err != nil {
			return fmt.Errorf("failed to publish reminder batch: %w", err)
		}
		batches++
	}

	logger.Logger.Info("Installment reminder scan completed",
		zap.String("due_date", dueDate),
		zap.Int("users", len(userIDs)),
		zap.Int("batches", batches),
	)
	return nil
}

// DueAmount 某用户在指定到期日的未缴合计，提醒短信里展示
func (s *ScheduleService) DueAmount(ctx context.Context, userID int64, dueDate string) (string, error) {
	dayStart, err := time.Parse("2006-01-02", dueDate)
	if err != nil {
		return "", fmt.Errorf("invalid due date %q: %w", dueDate, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	var sum decimal.NullDecimal
	if err := database.DB().WithContext(ctx).
		Model(&model.Installment{}).
		Select("SUM(installments.amount)").
		Joins("JOIN subscriptions ON subscriptions.id = installments.subscription_id").
		Where("subscriptions.user_id = ?", userID).
		Where("installments.status = ?", model.InstallmentStatusPending).
		Where("installments.due_at >= ? AND installments.due_at < ?", dayStart, dayEnd).
		Scan(&sum).Error; err != nil {
		return "", fmt.Errorf("failed to sum due amount: %w", err)
	}

	if !sum.Valid {
		return "0.00", nil
	}
	return sum.Decimal.StringFixed(2), nil
}

// MarkOverdueInstallments 把已过期未缴的分期翻成 overdue
func (s *ScheduleService) MarkOverdueInstallments(ctx context.Context) (int64, error) {
	result := database.DB().WithContext(ctx).
		Model(&model.Installment{}).
		Where("status = ? AND due_at < ?", model.InstallmentStatusPending, time.Now().AddDate(0, 0, -1)).
		Update("status", model.InstallmentStatusOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue installments: %w", result.Error)
	}
	return result.RowsAffected, nil
}
