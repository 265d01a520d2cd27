package storage

import (
	"fmt"

	"go.opentelemetry.io/otel"

	pkgdatabase "Akshayapatra/pkg/database"
	pkgmq "Akshayapatra/pkg/mq"
	pkgredis "Akshayapatra/pkg/redis"
	"Akshayapatra/storage/database"
	"Akshayapatra/storage/mq"
	"Akshayapatra/storage/redis"
)

//统一 init storage 层

func Init() error {
	// 指标仪表先于连接建立：各存储层的 hook 在首条命令时就会打点
	if err := initMetrics(); err != nil {
		return err
	}

	if err := database.Init(); err != nil {
		return err
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(); err != nil {
		return err
	}

	return nil
}

func initMetrics() error {
	meter := otel.Meter("akshayapatra-storage")

	if err := pkgdatabase.InitDatabaseMetrics(meter); err != nil {
		return fmt.Errorf("failed to init database metrics: %w", err)
	}
	if err := pkgredis.InitRedisMetrics(meter); err != nil {
		return fmt.Errorf("failed to init redis metrics: %w", err)
	}
	if err := pkgmq.InitMQMetrics(meter); err != nil {
		return fmt.Errorf("failed to init mq metrics: %w", err)
	}
	return nil
}
