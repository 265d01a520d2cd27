package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"Akshayapatra/config"
	"Akshayapatra/internal/queue"
	"Akshayapatra/internal/service"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/sms"
	"Akshayapatra/pkg/snowflake"
	"Akshayapatra/storage"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := queue.DeclareTopology(); err != nil {
		logger.Logger.Fatal("Failed to declare queue topology", zap.Error(err))
	}

	if err := snowflake.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := sms.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize SMS service", zap.Error(err))
		logger.Logger.Info("SMS service will be disabled, SMS features may not work")
	}

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	// 启动所有的消费者
	queue.StartConsumers(queue.Handlers{
		ReferralRecompute:   service.HandleReferralRecompute,
		PaymentSettled:      service.HandlePaymentSettled,
		RewardWinnerNotify:  service.HandleRewardWinnerNotify,
		InstallmentReminder: service.HandleInstallmentReminder,
	})

	<-ctx.Done()

	logger.Logger.Info("Worker service shutting down gracefully")
}
