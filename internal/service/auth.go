package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	ri "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Akshayapatra/config"
	"Akshayapatra/internal/cache"
	"Akshayapatra/internal/model"
	"Akshayapatra/internal/model/dto"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/pkg/slider"
	"Akshayapatra/pkg/sms"
	"Akshayapatra/pkg/snowflake"
	"Akshayapatra/pkg/token"
	"Akshayapatra/storage/database"
	"Akshayapatra/utils"
)

var (
	authOnce    sync.Once
	authService *AuthService
)

// AuthService 手机号验证码注册/登录
type AuthService struct{}

func Auth() *AuthService {
	authOnce.Do(func() {
		authService = &AuthService{}
	})
	return authService
}

// 推荐码字符集，去掉易混淆的 0/O/1/I
const referralCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const referralCodeLength = 8

// SendCaptcha 发送验证码。
// 当日发送超过滑块阈值后必须携带滑块验证 token，超过每日上限直接拒绝。
func (s *AuthService) SendCaptcha(ctx context.Context, req *dto.SendCaptchaRequest) (*dto.SendCaptchaResponse, error) {
	if !utils.ValidatePhone(req.Phone) {
		return nil, errors.VerificationCodeInvalid
	}

	phoneHash := utils.HashPhone(req.Phone)

	count, err := cache.GetCaptchaCount(ctx, phoneHash)
	if err != nil {
		return nil, fmt.Errorf("failed to read captcha count: %w", err)
	}

	if count >= config.Cfg.CaptchaMaxDaily {
		return nil, errors.CaptchaRateLimited
	}

	if count >= config.Cfg.CaptchaSliderThreshold {
		if req.SliderToken == "" {
			return &dto.SendCaptchaResponse{SliderRequired: true}, nil
		}
		if !cache.ValidateSliderVerificationToken(ctx, phoneHash, req.SliderToken) {
			return nil, errors.VerificationSliderFailed
		}
	}

	code, err := generateNumericCode(6)
	if err != nil {
		return nil, fmt.Errorf("failed to generate captcha code: %w", err)
	}

	if err := cache.SetCaptcha(ctx, phoneHash, req.Scene, code); err != nil {
		return nil, fmt.Errorf("failed to store captcha: %w", err)
	}

	if _, err := cache.IncrCaptchaCount(ctx, phoneHash); err != nil {
		logger.Logger.Warn("Failed to increment captcha count",
			zap.String("phone_hash", phoneHash),
			zap.Error(err),
		)
	}

	if _, err := sms.SendCaptchaSMS(ctx, req.Phone, code); err != nil {
		return nil, fmt.Errorf("failed to send captcha sms: %w", err)
	}

	return &dto.SendCaptchaResponse{ExpiresIn: config.Cfg.CaptchaExpireSeconds}, nil
}

// VerifySlider 滑块验证，通过后换发 verification token 再走发码接口
func (s *AuthService) VerifySlider(ctx context.Context, req *dto.VerifySliderRequest, remoteIP string) (*dto.VerifySliderResponse, error) {
	passed, err := slider.Verify(ctx, req.SliderToken, remoteIP, "captcha_send")
	if err != nil {
		return nil, fmt.Errorf("slider verification error: %w", err)
	}
	if !passed {
		return nil, errors.VerificationSliderFailed
	}

	phoneHash := utils.HashPhone(req.Phone)
	verificationToken, err := cache.SetSliderVerificationToken(ctx, phoneHash)
	if err != nil {
		return nil, fmt.Errorf("failed to store slider verification token: %w", err)
	}

	return &dto.VerifySliderResponse{SliderVerificationToken: verificationToken}, nil
}

// Register 验证码注册。手机号密文落库，哈希用于唯一性与查询。
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if !utils.ValidatePhone(req.Phone) {
		return nil, errors.VerificationCodeInvalid
	}

	phoneHash := utils.HashPhone(req.Phone)
	if err := s.consumeCaptcha(ctx, phoneHash, "register", req.Code); err != nil {
		return nil, err
	}

	var existing int64
	if err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("phone_hash = ?", phoneHash).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing phone: %w", err)
	}
	if existing > 0 {
		return nil, errors.PhoneAlreadyRegistered
	}

	publicID, err := snowflake.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate public id: %w", err)
	}

	cipher, err := utils.EncryptPhone(req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone: %w", err)
	}

	referralCode, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	user := model.User{
		PublicID:     publicID,
		FullName:     req.FullName,
		PhoneCipher:  []byte(cipher),
		PhoneHash:    &phoneHash,
		Status:       model.UserStatusOnboarding,
		ReferralCode: referralCode,
	}
	if req.SchemeID > 0 {
		user.InitialSchemeID = &req.SchemeID
	}

	if err := database.DB().WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// 注册携带的推荐码尽力绑定，失败不阻断注册
	if req.ReferralCode != "" {
		if err := Referral().AttachByCode(ctx, user.ID, req.ReferralCode); err != nil {
			logger.Logger.Warn("Register: referral attach failed",
				zap.Int64("user_id", user.ID),
				zap.String("referral_code", req.ReferralCode),
				zap.Error(err),
			)
		}
	}

	return s.issueTokens(ctx, &user, true)
}

// Login 验证码登录，未注册的手机号不自动开户
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if !utils.ValidatePhone(req.Phone) {
		return nil, errors.VerificationCodeInvalid
	}

	phoneHash := utils.HashPhone(req.Phone)
	if err := s.consumeCaptcha(ctx, phoneHash, "login", req.Code); err != nil {
		return nil, err
	}

	var user model.User
	if err := database.DB().WithContext(ctx).
		Where("phone_hash = ?", phoneHash).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.Unauthorized
		}
		return nil, fmt.Errorf("failed to load user by phone: %w", err)
	}

	return s.issueTokens(ctx, &user, false)
}

// RefreshToken 刷新令牌，旋转 refresh token
func (s *AuthService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	userID, err := token.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, errors.Unauthorized
	}

	if !cache.ValidateRefreshTokenExists(ctx, userID, req.RefreshToken) {
		return nil, errors.Unauthorized
	}

	accessToken, refreshToken, expiresIn, err := token.GenerateTokenPair(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token pair: %w", err)
	}

	if err := cache.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return &dto.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// Logout 注销，删除 refresh token
func (s *AuthService) Logout(ctx context.Context, publicID string) error {
	return cache.DeleteRefreshToken(ctx, publicID)
}

// consumeCaptcha 核对并消费验证码，一次性使用
func (s *AuthService) consumeCaptcha(ctx context.Context, phoneHash, scene, code string) error {
	stored, err := cache.GetCaptcha(ctx, phoneHash, scene)
	if err != nil {
		if err == ri.Nil {
			return errors.VerificationCodeExpired
		}
		return fmt.Errorf("failed to read captcha: %w", err)
	}

	if stored != code {
		return errors.VerificationCodeInvalid
	}

	if err := cache.DeleteCaptcha(ctx, phoneHash, scene); err != nil {
		logger.Logger.Warn("Failed to delete consumed captcha",
			zap.String("scene", scene),
			zap.Error(err),
		)
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User, isNewUser bool) (*dto.AuthResponse, error) {
	publicID := strconv.FormatInt(user.PublicID, 10)

	accessToken, refreshToken, expiresIn, err := token.GenerateTokenPair(publicID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token pair: %w", err)
	}

	if err := cache.SetRefreshToken(ctx, publicID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		User: dto.UserSnapshot{
			ID:            publicID,
			FullName:      user.FullName,
			Status:        string(user.Status),
			PhoneVerified: user.IsPhoneVerified(),
			IsNewUser:     isNewUser,
			SetupRequired: user.Status == model.UserStatusOnboarding,
		},
	}, nil
}

// uniqueReferralCode 生成未占用的推荐码，冲突重试
func (s *AuthService) uniqueReferralCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := database.DB().WithContext(ctx).
			Model(&model.User{}).
			Where("referral_code = ?", code).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check referral code uniqueness: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique referral code")
}

func generateReferralCode() (string, error) {
	out := make([]byte, referralCodeLength)
	max := big.NewInt(int64(len(referralCodeCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = referralCodeCharset[n.Int64()]
	}
	return string(out), nil
}

func generateNumericCode(length int) (string, error) {
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + n.Int64())
	}
	return string(out), nil
}
