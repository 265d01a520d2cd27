package errors

import "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证相关错误。
var (
	PhoneAlreadyRegistered     = Definition{Code: "PHONE_ALREADY_REGISTERED", Message: "Phone already registered"}
	CaptchaRateLimited         = Definition{Code: "CAPTCHA_RATE_LIMITED", Message: "Captcha rate limited"}
	VerificationCodeExpired    = Definition{Code: "VERIFICATION_CODE_EXPIRED", Message: "Verification code expired"}
	VerificationCodeInvalid    = Definition{Code: "VERIFICATION_CODE_INVALID", Message: "Verification code invalid"}
	VerificationSliderRequired = Definition{Code: "VERIFICATION_SLIDER_REQUIRED", Message: "Slider verification required"}
	VerificationSliderFailed   = Definition{Code: "VERIFICATION_SLIDER_FAILED", Message: "Slider verification failed"}
	TooManyRequests            = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
	Unauthorized               = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID              = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	AdminRequired              = Definition{Code: "ADMIN_REQUIRED", Message: "Admin privileges required"}
)

// 引导流程错误。
var (
	SetupStepInvalid     = Definition{Code: "SETUP_STEP_INVALID", Message: "Setup step invalid"}
	SetupNotActive       = Definition{Code: "SETUP_NOT_ACTIVE", Message: "Setup wizard is not active"}
	SetupAdvanceInFlight = Definition{Code: "SETUP_ADVANCE_IN_FLIGHT", Message: "A step transition is already in progress"}
)

// 资料模块错误。
var (
	ProfileIncomplete = Definition{Code: "PROFILE_INCOMPLETE", Message: "Profile incomplete"}
	LocationInvalid   = Definition{Code: "LOCATION_INVALID", Message: "Country, state and district are required"}
	AddressInvalid    = Definition{Code: "ADDRESS_INVALID", Message: "Street address is required"}
	PhoneNotVerified  = Definition{Code: "PHONE_NOT_VERIFIED", Message: "Phone not verified"}
)

// 方案/订阅模块错误。
var (
	SchemeNotFound     = Definition{Code: "SCHEME_NOT_FOUND", Message: "Scheme not found"}
	SchemeInactive     = Definition{Code: "SCHEME_INACTIVE", Message: "Scheme is not open for subscription"}
	AlreadySubscribed  = Definition{Code: "ALREADY_SUBSCRIBED", Message: "Already subscribed to this scheme"}
	InstallmentNotDue  = Definition{Code: "INSTALLMENT_NOT_DUE", Message: "Installment not due"}
	InstallmentSettled = Definition{Code: "INSTALLMENT_SETTLED", Message: "Installment already settled"}
	CartEmpty          = Definition{Code: "CART_EMPTY", Message: "Installment cart is empty"}
)

// 推荐体系错误。
var (
	ReferralCodeInvalid  = Definition{Code: "REFERRAL_CODE_INVALID", Message: "Referral code invalid"}
	ReferralSelfAttach   = Definition{Code: "REFERRAL_SELF_ATTACH", Message: "Cannot attach own referral code"}
	ReferralAlreadySet   = Definition{Code: "REFERRAL_ALREADY_SET", Message: "Referrer already attached"}
	ReferralLevelInvalid = Definition{Code: "REFERRAL_LEVEL_INVALID", Message: "Referral level invalid"}
)

// 支付模块错误。
var (
	PaymentInitFailed     = Definition{Code: "PAYMENT_INIT_FAILED", Message: "Payment initiation failed"}
	PaymentSignatureBad   = Definition{Code: "PAYMENT_SIGNATURE_BAD", Message: "Payment callback signature mismatch"}
	PaymentAlreadySettled = Definition{Code: "PAYMENT_ALREADY_SETTLED", Message: "Payment already settled"}
	RegistrationFeePaid   = Definition{Code: "REGISTRATION_FEE_PAID", Message: "Registration fee already paid"}
)

// 抽奖模块错误。
var (
	RewardTierInvalid = Definition{Code: "REWARD_TIER_INVALID", Message: "Reward tier invalid"}
	DrawAlreadyDone   = Definition{Code: "DRAW_ALREADY_DONE", Message: "Draw already completed for this month"}
	DrawNoCandidates  = Definition{Code: "DRAW_NO_CANDIDATES", Message: "No eligible candidates for draw"}
)

// 内部包级错误。
var (
	ErrTokenGeneratorNotInitialized = errors.New("token generator not initialized")
	ErrUnexpectedSigningMethod      = errors.New("unexpected signing method")
	ErrInvalidToken                 = errors.New("invalid token")
	ErrInvalidTokenClaims           = errors.New("invalid token claims")
	ErrInvalidTokenType             = errors.New("invalid token type")
	ErrUserIDNotFound               = errors.New("user id not found in token")
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	PhoneAlreadyRegistered.Code:     PhoneAlreadyRegistered,
	CaptchaRateLimited.Code:         CaptchaRateLimited,
	VerificationCodeExpired.Code:    VerificationCodeExpired,
	VerificationCodeInvalid.Code:    VerificationCodeInvalid,
	VerificationSliderRequired.Code: VerificationSliderRequired,
	VerificationSliderFailed.Code:   VerificationSliderFailed,
	TooManyRequests.Code:            TooManyRequests,
	Unauthorized.Code:               Unauthorized,
	InvalidUserID.Code:              InvalidUserID,
	AdminRequired.Code:              AdminRequired,
	SetupStepInvalid.Code:           SetupStepInvalid,
	SetupNotActive.Code:             SetupNotActive,
	SetupAdvanceInFlight.Code:       SetupAdvanceInFlight,
	ProfileIncomplete.Code:          ProfileIncomplete,
	LocationInvalid.Code:            LocationInvalid,
	AddressInvalid.Code:             AddressInvalid,
	PhoneNotVerified.Code:           PhoneNotVerified,
	SchemeNotFound.Code:             SchemeNotFound,
	SchemeInactive.Code:             SchemeInactive,
	AlreadySubscribed.Code:          AlreadySubscribed,
	InstallmentNotDue.Code:          InstallmentNotDue,
	InstallmentSettled.Code:         InstallmentSettled,
	CartEmpty.Code:                  CartEmpty,
	ReferralCodeInvalid.Code:        ReferralCodeInvalid,
	ReferralSelfAttach.Code:         ReferralSelfAttach,
	ReferralAlreadySet.Code:         ReferralAlreadySet,
	ReferralLevelInvalid.Code:       ReferralLevelInvalid,
	PaymentInitFailed.Code:          PaymentInitFailed,
	PaymentSignatureBad.Code:        PaymentSignatureBad,
	PaymentAlreadySettled.Code:      PaymentAlreadySettled,
	RegistrationFeePaid.Code:        RegistrationFeePaid,
	RewardTierInvalid.Code:          RewardTierInvalid,
	DrawAlreadyDone.Code:            DrawAlreadyDone,
	DrawNoCandidates.Code:           DrawNoCandidates,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
