package setup

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"Akshayapatra/internal/model"
	"Akshayapatra/pkg/logger"
)

// 网关回跳识别的 query 参数。
const (
	paramPayment = "payment"
	paramTxnID   = "txn_id"
	paramScheme  = "scheme"
	paramAmount  = "amount"
	paramMethod  = "method"

	paymentSuccess = "success"
	paymentFailed  = "failed"
)

// PaymentOutcome 回跳处理结果。
type PaymentOutcome string

const (
	OutcomeNone    PaymentOutcome = "none"    // URL 未携带支付参数
	OutcomeSuccess PaymentOutcome = "success" // 应展示回执弹窗
	OutcomeFailed  PaymentOutcome = "failed"  // 停留在付费步骤重试
)

// PaymentResult 回跳处理的产出：回执（仅成功时）与去参后的跳转地址。
// CleanURL 用 history 替换而非压栈，避免回退键重放。
type PaymentResult struct {
	Outcome  PaymentOutcome        `json:"outcome"`
	Receipt  *model.PaymentReceipt `json:"receipt,omitempty"`
	CleanURL string                `json:"clean_url"`
}

// UserInfoProvider 回执合成需要的用户信息端口。
type UserInfoProvider interface {
	UserInfo(ctx context.Context, userID int64) (name, phone string, err error)
}

// Reconciler 支付回跳对账器。在每次回跳时检查 URL，
// 成功与失败两条路径互斥，同一 URL 不会双触发。
type Reconciler struct {
	users         UserInfoProvider
	newTxnID      func() (string, error)
	now           func() time.Time
	defaultAmount string // 未携带金额时按注册费计
}

func NewReconciler(users UserInfoProvider, newTxnID func() (string, error), defaultAmount string) *Reconciler {
	return &Reconciler{
		users:         users,
		newTxnID:      newTxnID,
		now:           time.Now,
		defaultAmount: defaultAmount,
	}
}

// WithNow 覆盖时钟（测试注入）。
func (r *Reconciler) WithNow(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Reconcile 处理一次回跳 URL。只读，不触碰向导状态：
// 成功路径的步进发生在客户端关掉回执弹窗之后（ack 接口）。
func (r *Reconciler) Reconcile(ctx context.Context, userID int64, rawURL string) (*PaymentResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	indicator := q.Get(paramPayment)

	switch indicator {
	case paymentSuccess:
		receipt, err := r.synthesizeReceipt(ctx, userID, q)
		if err != nil {
			return nil, err
		}
		return &PaymentResult{
			Outcome:  OutcomeSuccess,
			Receipt:  receipt,
			CleanURL: stripPaymentParams(u),
		}, nil

	case paymentFailed:
		// 状态不动，用户留在付费步骤重试
		return &PaymentResult{
			Outcome:  OutcomeFailed,
			CleanURL: stripPaymentParams(u),
		}, nil

	default:
		return &PaymentResult{Outcome: OutcomeNone, CleanURL: u.String()}, nil
	}
}

// synthesizeReceipt 从回跳参数与用户信息合成回执。
// 网关未携带交易号时由服务端补发。
func (r *Reconciler) synthesizeReceipt(ctx context.Context, userID int64, q url.Values) (*model.PaymentReceipt, error) {
	txnID := q.Get(paramTxnID)
	if txnID == "" {
		generated, err := r.newTxnID()
		if err != nil {
			return nil, err
		}
		txnID = generated
		logger.Logger.Info("Gateway callback carried no transaction id, generated one",
			zap.Int64("user_id", userID),
			zap.String("transaction_id", txnID),
		)
	}

	name, phone, err := r.users.UserInfo(ctx, userID)
	if err != nil {
		// 回执照常展示，用户信息留空
		logger.Logger.Warn("Failed to load user info for receipt",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	amount := q.Get(paramAmount)
	if amount == "" {
		amount = r.defaultAmount
	}

	method := q.Get(paramMethod)
	if method == "" {
		method = "gateway"
	}

	receipt := &model.PaymentReceipt{
		TransactionID: txnID,
		Amount:        amount,
		PaymentType:   string(model.PaymentTypeRegistrationFee),
		Timestamp:     r.now().UTC().Format(time.RFC3339),
		UserName:      name,
		UserPhone:     phone,
		PaymentMethod: method,
		Status:        paymentSuccess,
	}

	if schemeStr := q.Get(paramScheme); schemeStr != "" {
		if schemeID, err := strconv.ParseInt(schemeStr, 10, 64); err == nil {
			receipt.SchemeID = &schemeID
		}
	}

	return receipt, nil
}

// stripPaymentParams 去掉支付相关参数后重组 URL，其余参数原样保留。
func stripPaymentParams(u *url.URL) string {
	q := u.Query()
	q.Del(paramPayment)
	q.Del(paramTxnID)
	q.Del(paramScheme)
	q.Del(paramAmount)
	q.Del(paramMethod)

	clean := *u
	clean.RawQuery = q.Encode()
	return clean.String()
}
