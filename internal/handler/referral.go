package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/service"
	"Akshayapatra/pkg/response"
)

// AttachReferral 绑定推荐人
// POST /v1/referrals/attach
func AttachReferral(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.AttachReferralRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Referral().AttachByCode(ctx, user.ID, req.ReferralCode); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// GetReferralStats 推荐聚合
// GET /v1/referrals/stats
func GetReferralStats(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	resp, err := service.Referral().Stats(ctx, user.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ListCommissions 佣金流水
// GET /v1/referrals/commissions
func ListCommissions(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	resp, err := service.Referral().Commissions(ctx, user.ID, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ListReferralLevels 层级比例配置
// GET /v1/referrals/levels
func ListReferralLevels(ctx context.Context, c *app.RequestContext) {
	resp, err := service.Referral().Levels(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}
