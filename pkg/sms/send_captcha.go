package sms

import (
	"context"
	"encoding/json"
	"fmt"

	"Akshayapatra/config"
)

// SendCaptchaSMS 发送验证码短信
func SendCaptchaSMS(ctx context.Context, phone, code string) (*SendResponse, error) {
	cfg := config.Cfg

	templateParam := map[string]string{
		"code": code,
	}
	paramJSON, err := json.Marshal(templateParam)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template param: %w", err)
	}

	return SendSingle(ctx, phone, cfg.SMSSignName, cfg.SMSTemplateCode, string(paramJSON))
}

// SendRewardNotification 发送月度中奖通知
func SendRewardNotification(ctx context.Context, phone, month, tierName string) error {
	cfg := config.Cfg

	templateParam := map[string]string{
		"month": month,
		"tier":  tierName,
	}
	paramJSON, err := json.Marshal(templateParam)
	if err != nil {
		return fmt.Errorf("failed to marshal template param: %w", err)
	}

	_, err = SendSingle(ctx, phone, cfg.SMSSignName, cfg.SMSRewardTemplateCode, string(paramJSON))
	return err
}

// SendBatchInstallmentReminder 批量发送分期到期提醒
// phones 与 amounts 一一对应，amounts 为格式化后的金额字符串
func SendBatchInstallmentReminder(ctx context.Context, phones []string, amounts []string) error {
	if len(phones) != len(amounts) {
		return fmt.Errorf("phones and amounts count mismatch")
	}
	if len(phones) == 0 {
		return fmt.Errorf("phones list is empty")
	}

	cfg := config.Cfg

	templateParams := make([]string, len(phones))
	for i, amount := range amounts {
		param := map[string]string{
			"amount": amount,
		}
		paramJSON, err := json.Marshal(param)
		if err != nil {
			return fmt.Errorf("failed to marshal template param for phone %s: %w", phones[i], err)
		}
		templateParams[i] = string(paramJSON)
	}

	return SendBatch(ctx, phones, cfg.SMSSignName, cfg.SMSReminderTemplateCode, templateParams)
}
