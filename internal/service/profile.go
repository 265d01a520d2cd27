package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Akshayapatra/internal/cache"
	"Akshayapatra/internal/model"
	"Akshayapatra/internal/setup"
	"Akshayapatra/pkg/errors"
	"Akshayapatra/pkg/logger"
	"Akshayapatra/storage/database"
	"Akshayapatra/utils"
)

var (
	profileOnce    sync.Once
	profileService *ProfileService
)

// ProfileService 资料服务，同时充当引导流程的 ProfileService / UserInfoProvider 端口实现。
type ProfileService struct{}

func Profile() *ProfileService {
	profileOnce.Do(func() {
		profileService = &ProfileService{}
	})
	return profileService
}

// UserByID 按内部 ID 取用户
func (s *ProfileService) UserByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := database.DB().WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &user, nil
}

// UserByPublicID 按对外 ID 取用户，JWT 里存的是 public_id
func (s *ProfileService) UserByPublicID(ctx context.Context, publicID string) (*model.User, error) {
	pid, err := strconv.ParseInt(publicID, 10, 64)
	if err != nil {
		return nil, errors.InvalidUserID
	}

	var user model.User
	if err := database.DB().WithContext(ctx).
		Where("public_id = ?", pid).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.Unauthorized
		}
		return nil, fmt.Errorf("failed to load user by public id: %w", err)
	}
	return &user, nil
}

// CompletionStatus 服务端权威的资料完成状态。
// 缺失步骤 token 与引导页面一一对应，注册费欠缴也算一步。
func (s *ProfileService) CompletionStatus(ctx context.Context, userID int64) (*setup.CompletionStatus, error) {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	missing := make([]string, 0, 4)
	if user.Country == "" || user.State == "" || user.District == "" {
		missing = append(missing, setup.TokenLocation)
	}
	if user.StreetAddress == "" {
		missing = append(missing, setup.TokenAddress)
	}
	if user.FullName == "" || user.InitialSchemeID == nil {
		missing = append(missing, setup.TokenProfile)
	}
	if user.RegistrationFeePaidAt == nil {
		missing = append(missing, setup.TokenRegistrationFee)
	}

	return &setup.CompletionStatus{
		IsComplete:   len(missing) == 0,
		MissingSteps: missing,
	}, nil
}

// EnsureProfile 幂等建档：补齐推荐聚合行，重复调用无副作用。
// 用户行本身在注册时已创建。
func (s *ProfileService) EnsureProfile(ctx context.Context, userID int64) error {
	stats := model.ReferralStats{UserID: userID}
	if err := database.DB().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&stats).Error; err != nil {
		return fmt.Errorf("failed to ensure referral stats row: %w", err)
	}
	return nil
}

// FetchSnapshot 读资料快照，缓存优先。
func (s *ProfileService) FetchSnapshot(ctx context.Context, userID int64) (*model.ProfileSnapshot, error) {
	snapshot, err := cache.GetProfileSnapshot(ctx, userID)
	if err != nil {
		logger.Logger.Warn("Profile snapshot cache read failed, falling back to database",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	if snapshot != nil {
		return snapshot, nil
	}

	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot = user.Snapshot()
	if err := cache.SetProfileSnapshot(ctx, userID, snapshot); err != nil {
		logger.Logger.Warn("Failed to cache profile snapshot",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	return snapshot, nil
}

// RegistrationFeeNeeded 注册费是否仍欠缴
func (s *ProfileService) RegistrationFeeNeeded(ctx context.Context, userID int64) (bool, error) {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.RegistrationFeePaidAt == nil, nil
}

// UpdateLocation 位置步骤落库
func (s *ProfileService) UpdateLocation(ctx context.Context, userID int64, country, state, district string) error {
	if country == "" || state == "" || district == "" {
		return errors.LocationInvalid
	}

	if err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"country":  country,
			"state":    state,
			"district": district,
		}).Error; err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}

	return s.invalidateSnapshot(ctx, userID)
}

// UpdateAddress 地址步骤落库
func (s *ProfileService) UpdateAddress(ctx context.Context, userID int64, streetAddress string) error {
	if streetAddress == "" {
		return errors.AddressInvalid
	}

	if err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("street_address", streetAddress).Error; err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}

	return s.invalidateSnapshot(ctx, userID)
}

// UpdateProfile 资料步骤落库：姓名、手机号、初始方案。
// 手机号非空时重新加密绑定，注册时已绑定的场景传空串即可。
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, fullName, phone string, schemeID *int64) error {
	updates := map[string]interface{}{}
	if fullName != "" {
		updates["full_name"] = fullName
	}
	if schemeID != nil {
		updates["initial_scheme_id"] = *schemeID
	}

	if phone != "" {
		if !utils.ValidatePhone(phone) {
			return errors.PhoneNotVerified
		}

		cipher, err := utils.EncryptPhone(phone)
		if err != nil {
			return fmt.Errorf("failed to encrypt phone: %w", err)
		}
		hash := utils.HashPhone(phone)

		var count int64
		if err := database.DB().WithContext(ctx).
			Model(&model.User{}).
			Where("phone_hash = ? AND id <> ?", hash, userID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check phone uniqueness: %w", err)
		}
		if count > 0 {
			return errors.PhoneAlreadyRegistered
		}

		updates["phone_cipher"] = []byte(cipher)
		updates["phone_hash"] = hash
	}

	if len(updates) == 0 {
		return nil
	}

	if err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return s.invalidateSnapshot(ctx, userID)
}

// FinishSetup 引导终态落库：onboarding 用户转为 active
func (s *ProfileService) FinishSetup(ctx context.Context, userID int64) error {
	if err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND status = ?", userID, model.UserStatusOnboarding).
		Update("status", model.UserStatusActive).Error; err != nil {
		return fmt.Errorf("failed to finish setup: %w", err)
	}
	return s.invalidateSnapshot(ctx, userID)
}

// UserInfo 回执合成需要的用户信息，手机号打码展示
func (s *ProfileService) UserInfo(ctx context.Context, userID int64) (name, phone string, err error) {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}

	masked := ""
	if len(user.PhoneCipher) > 0 {
		plain, derr := utils.DecryptPhone(string(user.PhoneCipher))
		if derr != nil {
			logger.Logger.Warn("Failed to decrypt phone for receipt",
				zap.Int64("user_id", userID),
				zap.Error(derr),
			)
		} else {
			masked = maskPhone(plain)
		}
	}

	return user.FullName, masked, nil
}

func (s *ProfileService) invalidateSnapshot(ctx context.Context, userID int64) error {
	if err := cache.InvalidateProfileSnapshot(ctx, userID); err != nil {
		logger.Logger.Warn("Failed to invalidate profile snapshot",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	return nil
}

// maskPhone 保留尾部 4 位，其余打码
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	masked := make([]byte, len(phone))
	for i := range masked {
		if i >= len(phone)-4 {
			masked[i] = phone[i]
		} else {
			masked[i] = '*'
		}
	}
	return string(masked)
}
