package dto

// ========== Auth 相关 DTO ==========

// SendCaptchaRequest 发送验证码请求
type SendCaptchaRequest struct {
	Phone       string `json:"phone" binding:"required"`
	Scene       string `json:"scene" binding:"required"` // register / login
	SliderToken string `json:"slider_token,omitempty"`
}

// SendCaptchaResponse 发送验证码响应
type SendCaptchaResponse struct {
	ExpiresIn      int  `json:"expires_in"`
	SliderRequired bool `json:"slider_required,omitempty"`
}

// VerifySliderRequest 滑块验证请求
type VerifySliderRequest struct {
	Phone       string `json:"phone" binding:"required"`
	SliderToken string `json:"slider_token" binding:"required"`
}

// VerifySliderResponse 滑块验证响应
type VerifySliderResponse struct {
	SliderVerificationToken string `json:"slider_verification_token"`
}

// RegisterRequest 手机号注册请求
type RegisterRequest struct {
	Phone        string `json:"phone" binding:"required"`
	Code         string `json:"code" binding:"required"`
	FullName     string `json:"full_name"`
	ReferralCode string `json:"referral_code,omitempty"` // 注册时携带的推荐码
	SchemeID     int64  `json:"scheme_id,omitempty"`     // 落地页预选的方案
}

// LoginRequest 验证码登录请求
type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserSnapshot `json:"user"`
}

// UserSnapshot 认证时的用户快照
type UserSnapshot struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Status        string `json:"status"`
	PhoneVerified bool   `json:"phone_verified"`
	IsNewUser     bool   `json:"is_new_user"`
	SetupRequired bool   `json:"setup_required"`
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse 刷新令牌响应
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}
