package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"Akshayapatra/config"
	"Akshayapatra/internal/schedule"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/snowflake"
	"Akshayapatra/storage"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", config.Cfg.ServiceName+"-scheduler"),
		zap.String("environment", config.Cfg.Environment),
	)

	go runDailyLoop(ctx)
	go runMonthlyDrawLoop(ctx)

	<-ctx.Done()

	logger.Logger.Info("Scheduler service shutting down gracefully")
}

// runDailyLoop 每天 00:05 执行到期提醒扫描与逾期翻转。
// development 环境下改为每分钟一次便于本地调试。
func runDailyLoop(ctx context.Context) {
	s := schedule.GetScheduler()

	if config.Cfg.IsDevelopment() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		logger.Logger.Info("Daily scheduler running in development mode with 1m interval")

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runDailyOnce(ctx, s)
			}
		}
	}

	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 5, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		delay := time.Until(next)
		logger.Logger.Info("Scheduled next daily run",
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			runDailyOnce(ctx, s)
		}
	}
}

func runDailyOnce(ctx context.Context, s *schedule.Scheduler) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if err := s.RunDailyJobs(runCtx); err != nil {
		logger.Logger.Error("Daily scheduler run failed", zap.Error(err))
	}
}

// runMonthlyDrawLoop 每月 RewardDrawDay 号 01:00 触发上月开奖
func runMonthlyDrawLoop(ctx context.Context) {
	s := schedule.GetScheduler()

	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), config.Cfg.RewardDrawDay, 1, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 1, 0)
		}

		delay := time.Until(next)
		logger.Logger.Info("Scheduled next monthly draw",
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			if err := s.RunMonthlyDraw(runCtx); err != nil {
				logger.Logger.Error("Monthly draw run failed", zap.Error(err))
			}
			cancel()
		}
	}
}
