package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"Akshayapatra/config"
	"Akshayapatra/pkg/errors"
)

// HTTPClient 对接真实网关：HTTP 下单 + HMAC-SHA256 参数签名。
// 外呼被熔断器包住，网关抖动时快速失败而不是拖死请求。
type HTTPClient struct {
	baseURL    string
	merchantID string
	secret     []byte
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewHTTPClient() (*HTTPClient, error) {
	cfg := config.Cfg

	if cfg.GatewaySecret == "" {
		return nil, fmt.Errorf("gateway secret is not configured")
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.GatewayBaseURL, "/"),
		merchantID: cfg.GatewayMerchantID,
		secret:     []byte(cfg.GatewaySecret),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// 连续失败5次后熔断，30秒后尝试恢复
		breaker: NewCircuitBreaker("payment_gateway", 5, 30*time.Second),
	}, nil
}

type createOrderRequest struct {
	MerchantID    string `json:"merchant_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Purpose       string `json:"purpose"`
	ReturnURL     string `json:"return_url"`
	Signature     string `json:"signature"`
}

type createOrderResponse struct {
	RedirectURL string `json:"redirect_url"`
	OrderRef    string `json:"order_ref"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

func (c *HTTPClient) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	payload := createOrderRequest{
		MerchantID:    c.merchantID,
		TransactionID: req.TransactionID,
		Amount:        req.Amount.StringFixed(2),
		Currency:      "INR",
		Purpose:       req.Purpose,
		ReturnURL:     req.ReturnURL,
	}
	payload.Signature = c.sign(map[string]string{
		"merchant_id":    payload.MerchantID,
		"transaction_id": payload.TransactionID,
		"amount":         payload.Amount,
		"currency":       payload.Currency,
		"purpose":        payload.Purpose,
		"return_url":     payload.ReturnURL,
	})

	var out *InitiateResponse
	err := c.breaker.Call(ctx, func() error {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/orders", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(respBody))
		}

		var parsed createOrderResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return fmt.Errorf("failed to parse gateway response: %w", err)
		}

		if parsed.RedirectURL == "" {
			return fmt.Errorf("gateway rejected order: %s %s", parsed.Code, parsed.Message)
		}

		out = &InitiateResponse{
			RedirectURL: parsed.RedirectURL,
			GatewayRef:  parsed.OrderRef,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyCallback 回调参数按键升序拼接后计算 HMAC-SHA256，常数时间比较。
func (c *HTTPClient) VerifyCallback(params map[string]string, signature string) error {
	expected := c.sign(params)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errors.PaymentSignatureBad
	}
	return nil
}

func (c *HTTPClient) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}

	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(sb.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
