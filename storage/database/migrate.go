package database

import (
	"fmt"

	"Akshayapatra/internal/model"
)

// Migrate 自动迁移全部业务表
func Migrate() error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	return db.AutoMigrate(
		&model.User{},
		&model.Scheme{},
		&model.Subscription{},
		&model.Installment{},
		&model.ReferralLevel{},
		&model.Commission{},
		&model.ReferralStats{},
		&model.Payment{},
		&model.RewardTier{},
		&model.RewardDraw{},
		&model.RewardWinner{},
	)
}
