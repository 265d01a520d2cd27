package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"Akshayapatra/internal/model/dto"
	"Akshayapatra/internal/service"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/response"
)

// ListSchemes 在售方案列表
// GET /v1/schemes
func ListSchemes(ctx context.Context, c *app.RequestContext) {
	resp, err := service.Scheme().List(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// GetScheme 方案详情
// GET /v1/schemes/:id
func GetScheme(ctx context.Context, c *app.RequestContext) {
	schemeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(ctx, c, errors.SchemeNotFound)
		return
	}

	resp, err := service.Scheme().Get(ctx, schemeID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// Subscribe 订阅方案
// POST /v1/schemes/:id/subscribe
func Subscribe(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	schemeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(ctx, c, errors.SchemeNotFound)
		return
	}

	resp, err := service.Scheme().Subscribe(ctx, user.ID, schemeID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ListSubscriptions 用户订阅列表
// GET /v1/subscriptions
func ListSubscriptions(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	resp, err := service.Scheme().Subscriptions(ctx, user.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// ListInstallments 订阅下的分期明细
// GET /v1/subscriptions/:id/installments
func ListInstallments(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	subscriptionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(ctx, c, errors.SchemeNotFound)
		return
	}

	resp, err := service.Scheme().Installments(ctx, user.ID, subscriptionID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// GetCart 待缴购物车
// GET /v1/cart
func GetCart(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	resp, err := service.Scheme().Cart(ctx, user.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// AddCartItem 分期加入购物车
// POST /v1/cart/items
func AddCartItem(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.CartAddRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Scheme().CartAdd(ctx, user.ID, req.InstallmentID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// CheckoutCart 整车结算，返回收银台跳转地址
// POST /v1/cart/checkout
func CheckoutCart(ctx context.Context, c *app.RequestContext) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	resp, err := service.Scheme().CartCheckout(ctx, user.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}
