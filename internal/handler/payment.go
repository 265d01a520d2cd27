package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/service"
	"Akshayapatra/pkg/response"
)

// InitiatePayment 发起支付
// POST /v1/payments/initiate
func InitiatePayment(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.InitiatePaymentRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	resp, err := service.Payment().Initiate(ctx, user.ID, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// PaymentCallback 网关异步回调，验签通过才会结清
// POST /v1/payments/callback
func PaymentCallback(ctx context.Context, c *app.RequestContext) {
	var req dto.PaymentCallbackRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Payment().HandleCallback(ctx, &req); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// ListPayments 用户支付流水
// GET /v1/payments
func ListPayments(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	resp, err := service.Payment().List(ctx, user.ID, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// GetRewardResults 某月开奖结果
// GET /v1/rewards/:month
func GetRewardResults(ctx context.Context, c *app.RequestContext) {
	resp, err := service.Reward().Results(ctx, c.Param("month"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ListRewardTiers 奖项配置
// GET /v1/rewards/tiers
func ListRewardTiers(ctx context.Context, c *app.RequestContext) {
	resp, err := service.Reward().Tiers(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}
