package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Akshayapatra/config"
	"Akshayapatra/internal/cache"
	"Akshayapatra/internal/model"
	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/setup"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/storage/database"
)

var (
	schemeOnce    sync.Once
	schemeService *SchemeService
)

// SchemeService 订阅方案、分期与待缴购物车
type SchemeService struct{}

func Scheme() *SchemeService {
	schemeOnce.Do(func() {
		schemeService = &SchemeService{}
	})
	return schemeService
}

const schemeListCacheKey = "list:active"

// List 在售方案列表，缓存优先
func (s *SchemeService) List(ctx context.Context) (*dto.SchemeListResponse, error) {
	var schemes []model.Scheme

	hit, err := cache.SchemeProtectedCache.Get(ctx, schemeListCacheKey, &schemes)
	if err != nil {
		logger.Logger.Warn("Scheme list cache read failed", zap.Error(err))
		hit = false
	}

	if !hit {
		if err := database.DB().WithContext(ctx).
			Where("status = ?", model.SchemeStatusActive).
			Order("id ASC").
			Find(&schemes).Error; err != nil {
			return nil, fmt.Errorf("failed to list schemes: %w", err)
		}
		if err := cache.SchemeProtectedCache.Set(ctx, schemeListCacheKey, schemes); err != nil {
			logger.Logger.Warn("Failed to cache scheme list", zap.Error(err))
		}
	}

	out := make([]dto.SchemeResponse, 0, len(schemes))
	for i := range schemes {
		out = append(out, schemeToDTO(&schemes[i]))
	}
	return &dto.SchemeListResponse{Schemes: out}, nil
}

// Get 方案详情
func (s *SchemeService) Get(ctx context.Context, schemeID int64) (*dto.SchemeResponse, error) {
	scheme, err := s.loadScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	resp := schemeToDTO(scheme)
	return &resp, nil
}

// Create 后台创建方案，创建即上架
func (s *SchemeService) Create(ctx context.Context, req *dto.CreateSchemeRequest) (*dto.SchemeResponse, error) {
	amount, err := decimal.NewFromString(req.InstallmentAmount)
	if err != nil || !amount.IsPositive() {
		return nil, errors.SchemeNotFound
	}

	percent := decimal.Zero
	if req.CommissionPercent != "" {
		percent, err = decimal.NewFromString(req.CommissionPercent)
		if err != nil || percent.IsNegative() {
			return nil, errors.SchemeNotFound
		}
	}

	scheme := model.Scheme{
		Name:              req.Name,
		Description:       req.Description,
		Status:            model.SchemeStatusActive,
		TotalPeriods:      req.TotalPeriods,
		PeriodDays:        30,
		InstallmentAmount: amount,
		CommissionPercent: percent,
	}
	if err := database.DB().WithContext(ctx).Create(&scheme).Error; err != nil {
		return nil, fmt.Errorf("failed to create scheme: %w", err)
	}

	if err := cache.SchemeProtectedCache.Delete(ctx, schemeListCacheKey); err != nil {
		logger.Logger.Warn("Failed to invalidate scheme list cache", zap.Error(err))
	}

	resp := schemeToDTO(&scheme)
	return &resp, nil
}

// Subscribe 订阅方案并整表生成分期。第一期立即到期，之后每期间隔 PeriodDays 天。
func (s *SchemeService) Subscribe(ctx context.Context, userID int64, schemeID int64) (*dto.SubscriptionResponse, error) {
	scheme, err := s.loadScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	if scheme.Status != model.SchemeStatusActive {
		return nil, errors.SchemeInactive
	}

	var existing int64
	if err := database.DB().WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND scheme_id = ?", userID, schemeID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing > 0 {
		return nil, errors.AlreadySubscribed
	}

	startAt := time.Now()
	subscription := model.Subscription{
		UserID:   userID,
		SchemeID: schemeID,
		Status:   model.SubscriptionStatusActive,
		StartAt:  startAt,
	}

	err = database.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&subscription).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}

		installments := make([]model.Installment, 0, scheme.TotalPeriods)
		for period := 1; period <= scheme.TotalPeriods; period++ {
			installments = append(installments, model.Installment{
				SubscriptionID: subscription.ID,
				Period:         period,
				Amount:         scheme.InstallmentAmount,
				DueAt:          startAt.AddDate(0, 0, (period-1)*scheme.PeriodDays),
				Status:         model.InstallmentStatusPending,
			})
		}
		if err := tx.CreateInBatches(installments, 50).Error; err != nil {
			return fmt.Errorf("failed to create installments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.subscriptionToDTO(ctx, &subscription, scheme)
}

// Subscriptions 用户订阅列表
func (s *SchemeService) Subscriptions(ctx context.Context, userID int64) ([]dto.SubscriptionResponse, error) {
	var subscriptions []model.Subscription
	if err := database.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&subscriptions).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	out := make([]dto.SubscriptionResponse, 0, len(subscriptions))
	for i := range subscriptions {
		scheme, err := s.loadScheme(ctx, subscriptions[i].SchemeID)
		if err != nil {
			return nil, err
		}
		resp, err := s.subscriptionToDTO(ctx, &subscriptions[i], scheme)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// Installments 订阅下的分期明细，校验归属
func (s *SchemeService) Installments(ctx context.Context, userID, subscriptionID int64) ([]dto.InstallmentResponse, error) {
	var subscription model.Subscription
	if err := database.DB().WithContext(ctx).
		Where("id = ? AND user_id = ?", subscriptionID, userID).
		First(&subscription).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.SchemeNotFound
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	var installments []model.Installment
	if err := database.DB().WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("period ASC").
		Find(&installments).Error; err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}

	out := make([]dto.InstallmentResponse, 0, len(installments))
	for i := range installments {
		out = append(out, installmentToDTO(&installments[i]))
	}
	return out, nil
}

// CartAdd 把待缴分期加入购物车。购物车存在向导存储里，随向导状态一起过期。
func (s *SchemeService) CartAdd(ctx context.Context, userID, installmentID int64) error {
	installment, err := s.ownedInstallment(ctx, userID, installmentID)
	if err != nil {
		return err
	}
	if installment.Status == model.InstallmentStatusSettled {
		return errors.InstallmentSettled
	}

	store := cache.NewSetupStore()
	var ids []int64
	if _, err := store.Get(ctx, userID, setup.KeyCart, &ids); err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	for _, id := range ids {
		if id == installmentID {
			return nil // 已在购物车
		}
	}
	ids = append(ids, installmentID)

	ttl := time.Duration(config.Cfg.SetupStateTTLHours) * time.Hour
	if err := store.Set(ctx, userID, setup.KeyCart, ids, ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Cart 购物车明细与合计
func (s *SchemeService) Cart(ctx context.Context, userID int64) (*dto.CartResponse, error) {
	installments, err := s.cartInstallments(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	items := make([]dto.InstallmentResponse, 0, len(installments))
	for i := range installments {
		total = total.Add(installments[i].Amount)
		items = append(items, installmentToDTO(&installments[i]))
	}

	return &dto.CartResponse{Items: items, Total: total.StringFixed(2)}, nil
}

// CartCheckout 整车结算：一笔支付覆盖所有选中分期
func (s *SchemeService) CartCheckout(ctx context.Context, userID int64) (*dto.CartCheckoutResponse, error) {
	installments, err := s.cartInstallments(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(installments) == 0 {
		return nil, errors.CartEmpty
	}

	ids := make([]int64, 0, len(installments))
	for i := range installments {
		if installments[i].Status == model.InstallmentStatusSettled {
			return nil, errors.InstallmentSettled
		}
		ids = append(ids, installments[i].ID)
	}

	resp, err := Payment().InitiateInstallments(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	// 结算后清空购物车，失败支付可重新加车
	store := cache.NewSetupStore()
	if err := store.Delete(ctx, userID, setup.KeyCart); err != nil {
		logger.Logger.Warn("Failed to clear cart after checkout",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	return &dto.CartCheckoutResponse{
		RedirectURL:   resp.RedirectURL,
		TransactionID: resp.TransactionID,
		Amount:        resp.Amount,
	}, nil
}

func (s *SchemeService) cartInstallments(ctx context.Context, userID int64) ([]model.Installment, error) {
	store := cache.NewSetupStore()
	var ids []int64
	if _, err := store.Get(ctx, userID, setup.KeyCart, &ids); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var installments []model.Installment
	if err := database.DB().WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.id = installments.subscription_id").
		Where("installments.id IN ? AND subscriptions.user_id = ?", ids, userID).
		Order("installments.due_at ASC").
		Find(&installments).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart installments: %w", err)
	}
	return installments, nil
}

func (s *SchemeService) ownedInstallment(ctx context.Context, userID, installmentID int64) (*model.Installment, error) {
	var installment model.Installment
	if err := database.DB().WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.id = installments.subscription_id").
		Where("installments.id = ? AND subscriptions.user_id = ?", installmentID, userID).
		First(&installment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.InstallmentNotDue
		}
		return nil, fmt.Errorf("failed to load installment: %w", err)
	}
	return &installment, nil
}

func (s *SchemeService) loadScheme(ctx context.Context, schemeID int64) (*model.Scheme, error) {
	cacheKey := strconv.FormatInt(schemeID, 10)
	var scheme model.Scheme

	hit, err := cache.SchemeProtectedCache.Get(ctx, cacheKey, &scheme)
	if err != nil {
		logger.Logger.Warn("Scheme cache read failed", zap.Error(err))
		hit = false
	}
	if hit && scheme.ID != 0 {
		return &scheme, nil
	}

	if err := database.DB().WithContext(ctx).First(&scheme, schemeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.SchemeNotFound
		}
		return nil, fmt.Errorf("failed to load scheme: %w", err)
	}

	if err := cache.SchemeProtectedCache.Set(ctx, cacheKey, &scheme); err != nil {
		logger.Logger.Warn("Failed to cache scheme", zap.Error(err))
	}
	return &scheme, nil
}

func (s *SchemeService) subscriptionToDTO(ctx context.Context, subscription *model.Subscription, scheme *model.Scheme) (*dto.SubscriptionResponse, error) {
	var paid int64
	if err := database.DB().WithContext(ctx).
		Model(&model.Installment{}).
		Where("subscription_id = ? AND status = ?", subscription.ID, model.InstallmentStatusSettled).
		Count(&paid).Error; err != nil {
		return nil, fmt.Errorf("failed to count settled installments: %w", err)
	}

	resp := &dto.SubscriptionResponse{
		ID:           subscription.ID,
		SchemeID:     scheme.ID,
		SchemeName:   scheme.Name,
		Status:       string(subscription.Status),
		StartedAt:    subscription.StartAt,
		PaidPeriods:  int(paid),
		TotalPeriods: scheme.TotalPeriods,
	}

	var next model.Installment
	err := database.DB().WithContext(ctx).
		Where("subscription_id = ? AND status <> ?", subscription.ID, model.InstallmentStatusSettled).
		Order("period ASC").
		First(&next).Error
	if err == nil {
		resp.NextDueAt = &next.DueAt
		resp.NextDueAmount = next.Amount.StringFixed(2)
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to load next installment: %w", err)
	}

	return resp, nil
}

func schemeToDTO(scheme *model.Scheme) dto.SchemeResponse {
	return dto.SchemeResponse{
		ID:                scheme.ID,
		Name:              scheme.Name,
		Description:       scheme.Description,
		InstallmentAmount: scheme.InstallmentAmount.StringFixed(2),
		TotalPeriods:      scheme.TotalPeriods,
		CommissionPercent: scheme.CommissionPercent.StringFixed(2),
		Active:            scheme.Status == model.SchemeStatusActive,
	}
}

func installmentToDTO(installment *model.Installment) dto.InstallmentResponse {
	status := string(installment.Status)
	if installment.Status == model.InstallmentStatusPending && installment.DueAt.Before(time.Now()) {
		status = "due"
	}
	return dto.InstallmentResponse{
		ID:             installment.ID,
		SubscriptionID: installment.SubscriptionID,
		Period:         installment.Period,
		Amount:         installment.Amount.StringFixed(2),
		Status:         status,
		DueAt:          installment.DueAt,
		SettledAt:      installment.SettledAt,
	}
}
