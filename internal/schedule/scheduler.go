package schedule

// 调度器：每日扫描到期分期生成提醒批次，每月触发上月抽奖。
// 多实例部署时靠 Redis 锁保证同一轮只有一个实例执行。

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"Akshayapatra/internal/cache"
	"Akshayapatra/internal/service"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/utils"
)

const (
	// 提前几天提醒待缴分期
	reminderDaysAhead = 3

	dailyLockTTL   = 10 * time.Minute
	monthlyLockTTL = 30 * time.Minute
)

var (
	schedulerOnce sync.Once
	schedulerInst *Scheduler
)

type Scheduler struct {
	logger *zap.Logger

	dailyJobMu      sync.Mutex
	dailyJobRunning bool
	lastDailyRun    time.Time
}

func GetScheduler() *Scheduler {
	schedulerOnce.Do(func() {
		schedulerInst = &Scheduler{
			logger: logger.Logger,
		}
	})
	return schedulerInst
}

// RunDailyJobs 每日任务：逾期翻转 + 到期提醒扫描
func (s *Scheduler) RunDailyJobs(ctx context.Context) error {
	s.dailyJobMu.Lock()
	if s.dailyJobRunning {
		s.dailyJobMu.Unlock()
		s.logger.Info("Daily job already running, skipping")
		return nil
	}
	s.dailyJobRunning = true
	s.dailyJobMu.Unlock()

	defer func() {
		s.dailyJobMu.Lock()
		s.dailyJobRunning = false
		s.dailyJobMu.Unlock()
	}()

	startTime := time.Now()
	s.lastDailyRun = startTime

	// 跨实例互斥，日期入键保证第二天能重新抢到
	lockKey := "schedule:daily:" + startTime.Format("2006-01-02")
	acquired, err := cache.TryLock(ctx, lockKey, dailyLockTTL)
	if err != nil {
		s.logger.Warn("Daily job lock check failed, proceeding", zap.Error(err))
	} else if !acquired {
		s.logger.Info("Daily job claimed by another instance, skipping")
		return nil
	}

	s.logger.Info("Starting daily scheduler run",
		zap.Time("start_time", startTime),
	)

	overdue, err := service.Schedule().MarkOverdueInstallments(ctx)
	if err != nil {
		s.logger.Error("Failed to mark overdue installments", zap.Error(err))
	} else if overdue > 0 {
		s.logger.Info("Marked overdue installments", zap.Int64("count", overdue))
	}

	if err := service.Schedule().ScanDueReminders(ctx, reminderDaysAhead); err != nil {
		return err
	}

	s.logger.Info("Daily scheduler run completed",
		zap.Duration("elapsed", time.Since(startTime)),
	)
	return nil
}

// RunMonthlyDraw 上月开奖。重复触发由唯一月份约束兜底。
func (s *Scheduler) RunMonthlyDraw(ctx context.Context) error {
	month := utils.PreviousMonth(time.Now())

	lockKey := "schedule:draw:" + month
	acquired, err := cache.TryLock(ctx, lockKey, monthlyLockTTL)
	if err != nil {
		s.logger.Warn("Monthly draw lock check failed, proceeding", zap.Error(err))
	} else if !acquired {
		s.logger.Info("Monthly draw claimed by another instance, skipping")
		return nil
	}

	result, err := service.Reward().RunDraw(ctx, month)
	if err != nil {
		if err == errors.DrawAlreadyDone || err == errors.DrawNoCandidates {
			s.logger.Info("Monthly draw skipped",
				zap.String("month", month),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	s.logger.Info("Monthly draw finished",
		zap.String("month", month),
		zap.Int("winners", len(result.Winners)),
	)
	return nil
}
