package errors

import (
	"errors"
	"fmt"
)

// NonRetryableError 标记不应重试的错误（配置错误、签名错误等），
// 队列消费者据此决定直接丢弃还是重新入队。
type NonRetryableError struct {
	Code    string
	Message string
	Reason  string
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Reason)
}

// NewNonRetryableError 创建不可重试错误
func NewNonRetryableError(code, message, reason string) *NonRetryableError {
	return &NonRetryableError{Code: code, Message: message, Reason: reason}
}

// IsNonRetryable 判断错误是否不可重试
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// SMS 发送参数错误。
var (
	ErrSignNameRequired       = errors.New("signName is required")
	ErrTemplateCodeRequired   = errors.New("templateCode is required")
	ErrPhonesListEmpty        = errors.New("phones list is empty")
	ErrTemplateParamsMismatch = errors.New("templateParams count must match phones count")
)

// 滑块验证错误。
var (
	ErrUnsupportedCaptchaProvider = errors.New("unsupported captcha provider")
	ErrCaptchaTokenRequired       = errors.New("captcha verify token is required")
	ErrCaptchaResponseNil         = errors.New("captcha response is nil")
	ErrCaptchaVerificationFailed  = errors.New("captcha verification failed")
)
