package sms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Akshayapatra/config"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/metrics"

	"go.uber.org/zap"
)

// SendResponse 短信发送响应
type SendResponse struct {
	MessageID  string // 服务商返回的消息ID（阿里云为 BizId）
	StatusCode string // 服务商返回的状态码
	Code       string // 业务状态码
	Message    string // 错误消息（如果有）
	RequestID  string // 请求ID
	Provider   string // 服务提供商
	Template   string // 模板代码（用于监控）
}

// Client SMS 客户端接口
type Client interface {
	// SendSingle 发送单条短信
	// phone: 手机号
	// signName: 短信签名名称
	// templateCode: 模板代码
	// templateParam: 模板参数（JSON 字符串）
	SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) (*SendResponse, error)

	// SendBatch 批量发送短信
	// phones: 手机号列表
	// signName: 短信签名名称（所有手机号使用相同签名）
	// templateCode: 模板代码
	// templateParams: 模板参数列表（JSON 字符串数组），每个元素对应一个手机号的参数
	SendBatch(ctx context.Context, phones []string, signName, templateCode string, templateParams []string) error
}

var (
	smsClient Client
	smsOnce   sync.Once
	smsErr    error
)

// Init 初始化 SMS 客户端
func Init() error {
	smsOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.SMSProvider {
		case "aliyun":
			smsClient, smsErr = NewAliyunClient()
		case "mock":
			smsClient = NewMockClient()
		default:
			smsErr = fmt.Errorf("unsupported SMS provider: %s", cfg.SMSProvider)
		}

		if smsErr != nil {
			logger.Logger.Error("Failed to initialize SMS client", zap.Error(smsErr))
			return
		}

		logger.Logger.Info("SMS client initialized successfully",
			zap.String("provider", cfg.SMSProvider),
		)
	})

	return smsErr
}

func GetClient() Client {
	if smsClient == nil {
		panic("SMS client not initialized, call sms.Init() first")
	}
	return smsClient
}

func SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) (*SendResponse, error) {
	started := time.Now()
	resp, err := GetClient().SendSingle(ctx, phone, signName, templateCode, templateParam)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordSMSSent(templateCode, config.Cfg.SMSProvider, status, time.Since(started).Seconds())

	return resp, err
}

func SendBatch(ctx context.Context, phones []string, signName, templateCode string, templateParams []string) error {
	started := time.Now()
	err := GetClient().SendBatch(ctx, phones, signName, templateCode, templateParams)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordSMSSent(templateCode, config.Cfg.SMSProvider, status, time.Since(started).Seconds())

	return err
}
