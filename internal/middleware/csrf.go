package middleware

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/csrf"
	"github.com/hertz-contrib/sessions"
	"github.com/hertz-contrib/sessions/cookie"

	"Akshayapatra/config"
)

// SessionMiddleware 基于 cookie 的会话，后台管理接口使用
func SessionMiddleware() app.HandlerFunc {
	store := cookie.NewStore([]byte(config.Cfg.SessionSecret))
	return sessions.New("akpt-session", store)
}

// CSRFMiddleware 后台管理接口的 CSRF 防护，依赖 SessionMiddleware 先行
func CSRFMiddleware() app.HandlerFunc {
	return csrf.New(
		csrf.WithSecret(config.Cfg.CSRFSecret),
		csrf.WithKeyLookUp("header:X-CSRF-TOKEN"),
		csrf.WithErrorFunc(func(ctx context.Context, c *app.RequestContext) {
			c.AbortWithStatus(http.StatusForbidden)
		}),
	)
}
