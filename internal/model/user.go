package model

// UserStatus 用户状态枚举
type UserStatus string

const (
	UserStatusOnboarding UserStatus = "onboarding" // 注册后资料补全中
	UserStatusActive     UserStatus = "active"     // 正常使用
	UserStatusSuspended  UserStatus = "suspended"  // 被管理员停用
)

// StatusToStringMap 状态到字符串的映射
var StatusToStringMap = map[UserStatus]string{
	UserStatusOnboarding: "onboarding",
	UserStatusActive:     "active",
	UserStatusSuspended:  "suspended",
}

// User 用户模型

type User struct {
	BaseModel
	PublicID    int64   `gorm:"uniqueIndex;not null" json:"public_id"`
	FullName    string  `gorm:"type:varchar(128);not null;default:''" json:"full_name"`
	PhoneCipher []byte  `gorm:"type:bytea" json:"-"`                // 手机号密文，不对外暴露
	PhoneHash   *string `gorm:"uniqueIndex;type:char(64)" json:"-"` // 手机号哈希，用于查询

	Status  UserStatus `gorm:"type:varchar(16);not null;default:'onboarding';index:idx_users_status" json:"status"`
	IsAdmin bool       `gorm:"not null;default:false" json:"is_admin"`

	// 资料补全字段，引导流程据此推断缺失步骤
	Country       string `gorm:"type:varchar(64);not null;default:''" json:"country"`
	State         string `gorm:"type:varchar(64);not null;default:''" json:"state"`
	District      string `gorm:"type:varchar(64);not null;default:''" json:"district"`
	StreetAddress string `gorm:"type:varchar(256);not null;default:''" json:"street_address"`

	// 首次订阅的方案，资料步骤中选定
	InitialSchemeID *int64 `gorm:"index" json:"initial_scheme_id"`

	// 推荐体系
	ReferralCode string `gorm:"uniqueIndex;type:varchar(16);not null" json:"referral_code"` // 本人的推荐码
	ReferrerID   *int64 `gorm:"index" json:"referrer_id"`                                   // 推荐人（users.id）

	// 注册费结清时间，空表示未缴
	RegistrationFeePaidAt *int64 `json:"registration_fee_paid_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsPhoneVerified 手机号是否已验证绑定
func (u *User) IsPhoneVerified() bool {
	return u.PhoneHash != nil && *u.PhoneHash != ""
}

// ProfileSnapshot 资料快照，引导流程解析缺失步骤的输入。
type ProfileSnapshot struct {
	Country         string `json:"country"`
	State           string `json:"state"`
	District        string `json:"district"`
	StreetAddress   string `json:"street_address"`
	InitialSchemeID *int64 `json:"initial_scheme_id"`
	IsPhoneVerified bool   `json:"is_phone_verified"`
}

// Snapshot 导出引导流程需要的资料快照。
func (u *User) Snapshot() *ProfileSnapshot {
	return &ProfileSnapshot{
		Country:         u.Country,
		State:           u.State,
		District:        u.District,
		StreetAddress:   u.StreetAddress,
		InitialSchemeID: u.InitialSchemeID,
		IsPhoneVerified: u.IsPhoneVerified(),
	}
}
