package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"Akshayapatra/internal/handler"
	"Akshayapatra/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	// 认证相关路由
	auth := v1.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware())
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/token/refresh", handler.RefreshToken)
		auth.POST("/logout", middleware.AuthMiddleware(), handler.Logout)

		// 验证码相关路由
		captcha := auth.Group("/phone", middleware.CaptchaRateLimitMiddleware())
		{
			captcha.POST("/send-captcha", handler.SendCaptcha)
			captcha.POST("/verify-slider", handler.VerifySlider)
		}
	}

	// 引导流程路由
	setup := v1.Group("/setup")
	setup.Use(middleware.AuthMiddleware())
	{
		setup.POST("/init", handler.InitSetup)
		setup.GET("/state", handler.GetSetupState)
		setup.POST("/advance", middleware.SetupAdvanceRateLimitMiddleware(), handler.AdvanceSetup)
		setup.POST("/location", handler.SubmitSetupLocation)
		setup.POST("/address", handler.SubmitSetupAddress)
		setup.POST("/profile", handler.SubmitSetupProfile)
		setup.GET("/payment/return", handler.SetupPaymentReturn)
		setup.POST("/payment/ack", handler.AckSetupPayment)
	}

	// 方案与订阅路由
	schemes := v1.Group("/schemes")
	{
		schemes.GET("", handler.ListSchemes)
		schemes.GET("/:id", handler.GetScheme)
		schemes.POST("/:id/subscribe", middleware.AuthMiddleware(), handler.Subscribe)
	}

	subscriptions := v1.Group("/subscriptions")
	subscriptions.Use(middleware.AuthMiddleware())
	{
		subscriptions.GET("", handler.ListSubscriptions)
		subscriptions.GET("/:id/installments", handler.ListInstallments)
	}

	// 待缴购物车路由
	cart := v1.Group("/cart")
	cart.Use(middleware.AuthMiddleware())
	{
		cart.GET("", handler.GetCart)
		cart.POST("/items", handler.AddCartItem)
		cart.POST("/checkout", middleware.PaymentRateLimitMiddleware(), handler.CheckoutCart)
	}

	// 推荐体系路由
	referrals := v1.Group("/referrals")
	referrals.Use(middleware.AuthMiddleware())
	{
		referrals.POST("/attach", handler.AttachReferral)
		referrals.GET("/stats", handler.GetReferralStats)
		referrals.GET("/commissions", handler.ListCommissions)
		referrals.GET("/levels", handler.ListReferralLevels)
	}

	// 支付路由。回调由网关验签，不走 JWT
	payments := v1.Group("/payments")
	{
		payments.POST("/callback", handler.PaymentCallback)
		payments.POST("/initiate", middleware.AuthMiddleware(), middleware.PaymentRateLimitMiddleware(), handler.InitiatePayment)
		payments.GET("", middleware.AuthMiddleware(), handler.ListPayments)
	}

	// 月度抽奖路由
	rewards := v1.Group("/rewards")
	{
		rewards.GET("/tiers", handler.ListRewardTiers)
		rewards.GET("/:month", handler.GetRewardResults)
	}

	// 后台管理路由，浏览器侧会话 + CSRF，再加 JWT 管理员校验
	admin := v1.Group("/admin")
	admin.Use(middleware.SessionMiddleware())
	admin.Use(middleware.CSRFMiddleware())
	admin.Use(middleware.AuthMiddleware())
	{
		admin.POST("/schemes", handler.AdminCreateScheme)
		admin.PUT("/referral-levels", handler.AdminUpsertReferralLevel)
		admin.PUT("/reward-tiers", handler.AdminUpsertRewardTier)
		admin.POST("/rewards/draw", handler.AdminRunDraw)
	}
}
