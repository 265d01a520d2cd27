package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/service"
	"Akshayapatra/pkg/response"
)

// 后台管理接口，JWT 之上再校验 IsAdmin。

// AdminCreateScheme 创建方案
// POST /v1/admin/schemes
func AdminCreateScheme(ctx context.Context, c *app.RequestContext) {
	if _, ok := currentAdmin(ctx, c); !ok {
		return
	}

	var req dto.CreateSchemeRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	resp, err := service.Scheme().Create(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// AdminUpsertReferralLevel 调整层级佣金比例
// PUT /v1/admin/referral-levels
func AdminUpsertReferralLevel(ctx context.Context, c *app.RequestContext) {
	if _, ok := currentAdmin(ctx, c); !ok {
		return
	}

	var req dto.UpdateReferralLevelRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Referral().UpsertLevel(ctx, &req); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// AdminUpsertRewardTier 维护奖项配置
// PUT /v1/admin/reward-tiers
func AdminUpsertRewardTier(ctx context.Context, c *app.RequestContext) {
	if _, ok := currentAdmin(ctx, c); !ok {
		return
	}

	var req dto.UpsertRewardTierRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Reward().UpsertTier(ctx, &req); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// AdminRunDraw 手动触发月度开奖
// POST /v1/admin/rewards/draw
func AdminRunDraw(ctx context.Context, c *app.RequestContext) {
	if _, ok := currentAdmin(ctx, c); !ok {
		return
	}

	var req dto.RunDrawRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	resp, err := service.Reward().RunDraw(ctx, req.Month)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}
