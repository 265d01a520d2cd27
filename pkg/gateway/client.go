package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Akshayapatra/config"
	"Akshayapatra/pkg/logger"
)

// InitiateRequest 下单请求
type InitiateRequest struct {
	UserID        int64
	TransactionID string          // 我方交易号
	Amount        decimal.Decimal // INR
	Purpose       string          // registration_fee / installment
	ReturnURL     string          // 支付完成后的回跳地址
}

// InitiateResponse 下单结果
type InitiateResponse struct {
	RedirectURL string // 托管收银台地址，客户端整页跳转
	GatewayRef  string // 网关侧订单号
}

// Client 支付网关客户端接口
type Client interface {
	// Initiate 创建网关订单并返回收银台跳转地址
	Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error)

	// VerifyCallback 校验回调参数签名
	VerifyCallback(params map[string]string, signature string) error
}

var (
	gatewayClient Client
	gatewayOnce   sync.Once
	gatewayErr    error
)

// Init 初始化网关客户端。未配置商户号时退化为 mock，便于本地联调。
func Init() error {
	gatewayOnce.Do(func() {
		cfg := config.Cfg

		if cfg.GatewayMerchantID == "" {
			gatewayClient = NewMockClient()
			logger.Logger.Warn("Gateway merchant not configured, using mock gateway client")
			return
		}

		gatewayClient, gatewayErr = NewHTTPClient()
		if gatewayErr != nil {
			logger.Logger.Error("Failed to initialize gateway client", zap.Error(gatewayErr))
			return
		}

		logger.Logger.Info("Gateway client initialized successfully",
			zap.String("base_url", cfg.GatewayBaseURL),
		)
	})

	return gatewayErr
}

func GetClient() Client {
	if gatewayClient == nil {
		panic("Gateway client not initialized, call gateway.Init() first")
	}
	return gatewayClient
}

func Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	return GetClient().Initiate(ctx, req)
}

func VerifyCallback(params map[string]string, signature string) error {
	return GetClient().VerifyCallback(params, signature)
}

// ErrBreakerOpen 网关熔断中
var ErrBreakerOpen = fmt.Errorf("gateway circuit breaker is open")
