package mq

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"Akshayapatra/config"
	"Akshayapatra/pkg/logger"
)

var (
	conn    *amqp.Connection
	mqOnce  sync.Once
	initErr error
)

func Init() error {
	mqOnce.Do(func() {
		url := config.Cfg.GetRabbitMQURL()

		conn, initErr = amqp.Dial(url)
		if initErr != nil {
			logger.Logger.Error("Failed to connect to RabbitMQ", zap.Error(initErr))
			return
		}

		logger.Logger.Info("RabbitMQ connection established")
	})

	return initErr
}

// Connection 返回底层连接，消费者据此开自己的 channel
func Connection() *amqp.Connection {
	return conn
}

func Close(ctx context.Context) error {
	if conn == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
