package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"Akshayapatra/internal/middleware"
	"Akshayapatra/internal/model"
	"Akshayapatra/internal/service"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/response"
)

// currentUser 从 JWT 身份换回用户行，失败时已写 401 响应
func currentUser(ctx context.Context, c *app.RequestContext) (*model.User, bool) {
	publicID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return nil, false
	}

	user, err := service.Profile().UserByPublicID(ctx, publicID)
	if err != nil {
		response.Error(ctx, c, err)
		return nil, false
	}
	return user, true
}

// currentAdmin 管理接口的用户校验
func currentAdmin(ctx context.Context, c *app.RequestContext) (*model.User, bool) {
	user, ok := currentUser(ctx, c)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin {
		response.Error(ctx, c, errors.AdminRequired)
		return nil, false
	}
	return user, true
}
