package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// MockClient 可配置的网关客户端 mock，实现 Client 接口。
// 本地联调时直接返回一个带 payment=success 的回跳地址。
type MockClient struct {
	mu    sync.Mutex
	Calls []*InitiateRequest

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
}

func NewMockClient() *MockClient {
	return &MockClient{
		Calls: make([]*InitiateRequest, 0),
	}
}

func (m *MockClient) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.FailNext {
		m.FailNext = false
		return nil, errors.New("mock gateway failure")
	}

	redirect := fmt.Sprintf("%s?payment=success&txn_id=%s&amount=%s",
		req.ReturnURL,
		url.QueryEscape(req.TransactionID),
		url.QueryEscape(req.Amount.StringFixed(2)),
	)

	return &InitiateResponse{
		RedirectURL: redirect,
		GatewayRef:  "mock-order-" + req.TransactionID,
	}, nil
}

func (m *MockClient) VerifyCallback(params map[string]string, signature string) error {
	return nil
}
