package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Akshayapatra/config"
	"Akshayapatra/internal/cache"
	"Akshayapatra/internal/model"
	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/queue"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/gateway"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/metrics"
	"Akshayapatra/pkg/snowflake"
	"Akshayapatra/storage/database"
)

var (
	paymentOnce    sync.Once
	paymentService *PaymentService
)

// PaymentService 网关支付单的发起与结清
type PaymentService struct{}

func Payment() *PaymentService {
	paymentOnce.Do(func() {
		paymentService = &PaymentService{}
	})
	return paymentService
}

// Initiate 发起一笔支付并返回收银台跳转地址
func (s *PaymentService) Initiate(ctx context.Context, userID int64, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	switch model.PaymentType(req.Purpose) {
	case model.PaymentTypeRegistrationFee:
		return s.initiateRegistrationFee(ctx, userID, req.SchemeID)
	case model.PaymentTypeInstallment:
		if req.InstallmentID <= 0 {
			return nil, errors.PaymentInitFailed
		}
		return s.InitiateInstallments(ctx, userID, []int64{req.InstallmentID})
	default:
		return nil, errors.PaymentInitFailed
	}
}

// initiateRegistrationFee 注册费支付，金额取配置
func (s *PaymentService) initiateRegistrationFee(ctx context.Context, userID int64, schemeID int64) (*dto.InitiatePaymentResponse, error) {
	user, err := Profile().UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.RegistrationFeePaidAt != nil {
		return nil, errors.RegistrationFeePaid
	}

	amount, err := decimal.NewFromString(config.Cfg.RegistrationFeeAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid registration fee amount in config: %w", err)
	}

	returnURL := config.Cfg.GatewayReturnURL
	if schemeID > 0 {
		returnURL = fmt.Sprintf("%s?scheme=%d", returnURL, schemeID)
	}

	return s.initiate(ctx, userID, model.PaymentTypeRegistrationFee, amount, nil, returnURL)
}

// InitiateInstallments 一笔支付覆盖一个或多个待缴分期。
// 发起时就把分期挂到支付单上，回调只认 payment_id 反查。
func (s *PaymentService) InitiateInstallments(ctx context.Context, userID int64, installmentIDs []int64) (*dto.InitiatePaymentResponse, error) {
	if len(installmentIDs) == 0 {
		return nil, errors.PaymentInitFailed
	}

	var installments []model.Installment
	if err := database.DB().WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.id = installments.subscription_id").
		Where("installments.id IN ? AND subscriptions.user_id = ?", installmentIDs, userID).
		Find(&installments).Error; err != nil {
		return nil, fmt.Errorf("failed to load installments: %w", err)
	}
	if len(installments) != len(installmentIDs) {
		return nil, errors.InstallmentNotDue
	}

	total := decimal.Zero
	for i := range installments {
		if installments[i].Status == model.InstallmentStatusSettled {
			return nil, errors.InstallmentSettled
		}
		total = total.Add(installments[i].Amount)
	}

	return s.initiate(ctx, userID, model.PaymentTypeInstallment, total, installmentIDs, config.Cfg.GatewayReturnURL)
}

func (s *PaymentService) initiate(ctx context.Context, userID int64, paymentType model.PaymentType, amount decimal.Decimal, installmentIDs []int64, returnURL string) (*dto.InitiatePaymentResponse, error) {
	started := time.Now()

	txnID, err := snowflake.NextStringID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction id: %w", err)
	}

	payment := model.Payment{
		UserID:        userID,
		TransactionID: txnID,
		Type:          paymentType,
		Amount:        amount,
		Status:        model.PaymentStatusInitiated,
	}

	err = database.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		if len(installmentIDs) > 0 {
			if err := tx.Model(&model.Installment{}).
				Where("id IN ?", installmentIDs).
				Update("payment_id", payment.ID).Error; err != nil {
				return fmt.Errorf("failed to bind installments to payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := gateway.Initiate(ctx, &gateway.InitiateRequest{
		UserID:        userID,
		TransactionID: txnID,
		Amount:        amount,
		Purpose:       string(paymentType),
		ReturnURL:     returnURL,
	})
	if err != nil {
		logger.Logger.Error("Gateway initiate failed",
			zap.Int64("user_id", userID),
			zap.String("transaction_id", txnID),
			zap.Error(err),
		)
		return nil, errors.PaymentInitFailed
	}

	if resp.GatewayRef != "" {
		if err := database.DB().WithContext(ctx).
			Model(&model.Payment{}).
			Where("id = ?", payment.ID).
			Update("gateway_ref", resp.GatewayRef).Error; err != nil {
			logger.Logger.Warn("Failed to record gateway ref", zap.Error(err))
		}
	}

	metrics.RecordPaymentInitiated(string(paymentType), time.Since(started).Seconds())

	return &dto.InitiatePaymentResponse{
		RedirectURL:   resp.RedirectURL,
		TransactionID: txnID,
		Amount:        amount.StringFixed(2),
	}, nil
}

// HandleCallback 网关异步回调：验签、结清、发事件。
// 已结清的支付单重复回调直接幂等返回。
func (s *PaymentService) HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest) error {
	params := map[string]string{
		"transaction_id": req.TransactionID,
		"status":         req.Status,
	}
	if req.Amount != "" {
		params["amount"] = req.Amount
	}
	if req.Method != "" {
		params["method"] = req.Method
	}
	if req.GatewayRef != "" {
		params["gateway_ref"] = req.GatewayRef
	}

	if err := gateway.VerifyCallback(params, req.Signature); err != nil {
		return err
	}

	var payment model.Payment
	if err := database.DB().WithContext(ctx).
		Where("transaction_id = ?", req.TransactionID).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.PaymentInitFailed
		}
		return fmt.Errorf("failed to load payment: %w", err)
	}

	if payment.Status == model.PaymentStatusSettled {
		return nil // 重复回调
	}

	if req.Status != "success" {
		if err := database.DB().WithContext(ctx).
			Model(&model.Payment{}).
			Where("id = ? AND status = ?", payment.ID, model.PaymentStatusInitiated).
			Updates(map[string]interface{}{
				"status": model.PaymentStatusFailed,
				"method": req.Method,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark payment failed: %w", err)
		}
		metrics.RecordPaymentSettled(string(payment.Type), "failed", 0)
		return nil
	}

	now := time.Now()
	err := database.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", payment.ID, model.PaymentStatusInitiated).
			Updates(map[string]interface{}{
				"status":      model.PaymentStatusSettled,
				"method":      req.Method,
				"gateway_ref": req.GatewayRef,
				"settled_at":  now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to settle payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil // 并发回调抢先结清
		}

		switch payment.Type {
		case model.PaymentTypeRegistrationFee:
			if err := tx.Model(&model.User{}).
				Where("id = ? AND registration_fee_paid_at IS NULL", payment.UserID).
				Update("registration_fee_paid_at", now.Unix()).Error; err != nil {
				return fmt.Errorf("failed to mark registration fee paid: %w", err)
			}
		case model.PaymentTypeInstallment:
			if err := tx.Model(&model.Installment{}).
				Where("payment_id = ? AND status <> ?", payment.ID, model.InstallmentStatusSettled).
				Updates(map[string]interface{}{
					"status":     model.InstallmentStatusSettled,
					"settled_at": now,
				}).Error; err != nil {
				return fmt.Errorf("failed to settle installments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	payment.Status = model.PaymentStatusSettled
	payment.SettledAt = &now

	amountFloat, _ := payment.Amount.Float64()
	metrics.RecordPaymentSettled(string(payment.Type), "settled", amountFloat)

	// 注册费结清后资料快照里的欠费状态已变，失效掉
	if payment.Type == model.PaymentTypeRegistrationFee {
		if err := cache.InvalidateProfileSnapshot(ctx, payment.UserID); err != nil {
			logger.Logger.Warn("Failed to invalidate profile snapshot after fee settle", zap.Error(err))
		}
	}

	if err := cache.MarkDirty(ctx, payment.UserID, cache.DirtyTransactions); err != nil {
		logger.Logger.Warn("Failed to mark transactions dirty", zap.Error(err))
	}

	if err := queue.PublishPaymentSettled(&payment); err != nil {
		logger.Logger.Error("Failed to publish payment settled event",
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err),
		)
	}

	return nil
}

// SettledInstallmentIDs 支付单名下已结清的分期，worker 佣金入账用
func (s *PaymentService) SettledInstallmentIDs(ctx context.Context, paymentID int64) ([]int64, error) {
	var ids []int64
	if err := database.DB().WithContext(ctx).
		Model(&model.Installment{}).
		Where("payment_id = ? AND status = ?", paymentID, model.InstallmentStatusSettled).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list settled installments: %w", err)
	}
	return ids, nil
}

// List 用户支付流水
func (s *PaymentService) List(ctx context.Context, userID int64, limit int) (*dto.PaymentListResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var payments []model.Payment
	if err := database.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, dto.PaymentResponse{
			ID:            p.ID,
			TransactionID: p.TransactionID,
			Type:          string(p.Type),
			Amount:        p.Amount.StringFixed(2),
			Status:        string(p.Status),
			Method:        p.Method,
			CreatedAt:     p.CreatedAt,
			SettledAt:     p.SettledAt,
		})
	}
	return &dto.PaymentListResponse{Payments: out}, nil
}
