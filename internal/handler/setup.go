package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"Akshayapatra/config"
	"Akshayapatra/internal/cache"
	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/service"
	"Akshayapatra/internal/setup"
	"Akshayapatra/pkg/metrics"
	"Akshayapatra/pkg/response"
	"Akshayapatra/pkg/snowflake"
)

// newMachine 每个请求按用户装配一台状态机，存储与锁共享 Redis
func newMachine(userID int64) *setup.Machine {
	return setup.NewMachine(
		userID,
		cache.NewSetupStore(),
		service.Profile(),
		service.Referral(),
		cache.NewSetupLocker(),
		setup.WithDelay(time.Duration(config.Cfg.SetupAdvanceDelayMS)*time.Millisecond),
		setup.WithStateTTL(time.Duration(config.Cfg.SetupStateTTLHours)*time.Hour),
	)
}

func stateToDTO(state setup.State) dto.SetupStateResponse {
	steps := make([]int, 0, len(state.Mapping))
	for _, code := range state.Mapping {
		steps = append(steps, int(code))
	}
	return dto.SetupStateResponse{
		Status:      string(state.Status),
		Step:        state.Current().String(),
		StepIndex:   state.Step,
		Steps:       steps,
		Loading:     state.Loading,
		FeeRequired: state.Mapping.Contains(setup.StepRegistrationFee),
	}
}

// recordAdvance 步进打点，终态单独计数
func recordAdvance(state setup.State) {
	if state.Status == setup.StatusRedirecting {
		metrics.RecordSetupCompleted()
		return
	}
	metrics.RecordSetupAdvance(state.Current().String())
}

func advanceToDTO(state setup.State) dto.SetupAdvanceResponse {
	return dto.SetupAdvanceResponse{
		Status:    string(state.Status),
		Step:      state.Current().String(),
		StepIndex: state.Step,
		Completed: state.Status == setup.StatusRedirecting,
	}
}

// InitSetup 初始化引导：对账、建档、解析步骤序列
// POST /v1/setup/init
func InitSetup(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.SetupInitRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	// 链接携带的推荐码先落存储，后续重入初始化也能拿到
	if req.ReferralCode != "" {
		store := cache.NewSetupStore()
		ttl := time.Duration(config.Cfg.SetupStateTTLHours) * time.Hour
		_ = store.Set(ctx, user.ID, setup.KeyReferralCode, req.ReferralCode, ttl)
	}

	state, err := newMachine(user.ID).Init(ctx, req.ReferralCode)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, stateToDTO(state))
}

// GetSetupState 当前引导状态
// GET /v1/setup/state
func GetSetupState(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	state, err := newMachine(user.ID).Current(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, stateToDTO(state))
}

// AdvanceSetup 完成一个流程步骤后步进
// POST /v1/setup/advance
func AdvanceSetup(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.SetupAdvanceRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	state, err := newMachine(user.ID).Advance(ctx, req.StepIndex)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	recordAdvance(state)
	response.Success(ctx, c, advanceToDTO(state))
}

// SubmitSetupLocation 位置步骤：落库后步进
// POST /v1/setup/location
func SubmitSetupLocation(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.SetupLocationRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Profile().UpdateLocation(ctx, user.ID, req.Country, req.State, req.District); err != nil {
		response.Error(ctx, c, err)
		return
	}

	m := newMachine(user.ID)
	state, err := m.Current(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	state, err = m.Advance(ctx, state.Step)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	recordAdvance(state)
	response.Success(ctx, c, advanceToDTO(state))
}

// SubmitSetupAddress 地址步骤：落库后步进
// POST /v1/setup/address
func SubmitSetupAddress(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.SetupAddressRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Profile().UpdateAddress(ctx, user.ID, req.StreetAddress); err != nil {
		response.Error(ctx, c, err)
		return
	}

	m := newMachine(user.ID)
	state, err := m.Current(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	state, err = m.Advance(ctx, state.Step)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	recordAdvance(state)
	response.Success(ctx, c, advanceToDTO(state))
}

// SubmitSetupProfile 资料步骤：持久化后整体重算序列再步进
// POST /v1/setup/profile
func SubmitSetupProfile(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.SetupProfileRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var schemeID *int64
	if req.SchemeID > 0 {
		schemeID = &req.SchemeID
	}

	state, err := newMachine(user.ID).SubmitProfile(ctx, req.FullName, req.Phone, schemeID, req.ReferralCode)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	recordAdvance(state)
	response.Success(ctx, c, advanceToDTO(state))
}

// SetupPaymentReturn 网关回跳处理：识别支付参数并合成回执，不触碰向导状态
// GET /v1/setup/payment/return
func SetupPaymentReturn(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	reconciler := setup.NewReconciler(
		service.Profile(),
		snowflake.NextStringID,
		config.Cfg.RegistrationFeeAmount,
	)

	result, err := reconciler.Reconcile(ctx, user.ID, c.Request.URI().String())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	resp := dto.SetupPaymentReturnResponse{
		Outcome:  string(result.Outcome),
		CleanURL: result.CleanURL,
	}
	if result.Receipt != nil {
		resp.Receipt = &dto.PaymentReceipt{
			TransactionID: result.Receipt.TransactionID,
			Amount:        result.Receipt.Amount,
			Method:        result.Receipt.PaymentMethod,
			PaidAt:        result.Receipt.Timestamp,
			FullName:      result.Receipt.UserName,
			Phone:         result.Receipt.UserPhone,
		}
		if result.Receipt.SchemeID != nil {
			resp.Receipt.SchemeID = *result.Receipt.SchemeID
		}
	}
	response.Success(ctx, c, resp)
}

// AckSetupPayment 回执弹窗关闭后的确认步进，成功路径在这里离开付费步骤
// POST /v1/setup/payment/ack
func AckSetupPayment(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	m := newMachine(user.ID)
	state, err := m.Current(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	state, err = m.Advance(ctx, state.Step)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	recordAdvance(state)
	response.Success(ctx, c, advanceToDTO(state))
}
