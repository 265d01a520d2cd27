package setup

import "sort"

// StepCode 引导步骤编码，1-7 对应七种向导页面。
type StepCode int

const (
	StepUnknown         StepCode = 0
	StepLocation        StepCode = 1 // 国家/州/区选择
	StepAddress         StepCode = 2 // 街道地址
	StepProfile         StepCode = 3 // 姓名/手机号/方案选择
	StepCongrats        StepCode = 4 // 完成祝贺页
	StepIssuingCard     StepCode = 5 // 发卡进度页
	StepCredentials     StepCode = 6 // 账号凭据页
	StepRegistrationFee StepCode = 7 // 注册费支付
)

// 缺失步骤 token 与步骤编码的固定映射。
var tokenToStep = map[string]StepCode{
	TokenLocation:        StepLocation,
	TokenAddress:         StepAddress,
	TokenProfile:         StepProfile,
	TokenRegistrationFee: StepRegistrationFee,
}

// 缺失步骤/里程碑 token。
const (
	TokenLocation        = "location"
	TokenAddress         = "address"
	TokenProfile         = "profile"
	TokenRegistrationFee = "registration_fee"
	TokenCelebration     = "celebration" // 祝贺序列已看完，防止重复展示
)

// String 返回步骤的页面标识。未知编码返回 loading 占位，不会崩溃。
func (s StepCode) String() string {
	switch s {
	case StepLocation:
		return "location"
	case StepAddress:
		return "address"
	case StepProfile:
		return "profile"
	case StepCongrats:
		return "congrats"
	case StepIssuingCard:
		return "issuing_card"
	case StepCredentials:
		return "credentials"
	case StepRegistrationFee:
		return "registration_fee"
	default:
		return "loading"
	}
}

// Tracked 步骤是否带本地里程碑。1/2/3/7 为跟踪步骤，完成后写里程碑；
// 4/5/6 为纯流程步骤，到达即展示，无需跟踪。
func (s StepCode) Tracked() bool {
	switch s {
	case StepLocation, StepAddress, StepProfile, StepRegistrationFee:
		return true
	case StepCongrats, StepIssuingCard, StepCredentials:
		return false
	default:
		return false
	}
}

// Token 返回跟踪步骤对应的里程碑 token，非跟踪步骤返回空串。
func (s StepCode) Token() string {
	switch s {
	case StepLocation:
		return TokenLocation
	case StepAddress:
		return TokenAddress
	case StepProfile:
		return TokenProfile
	case StepRegistrationFee:
		return TokenRegistrationFee
	default:
		return ""
	}
}

// Mapping 有序步骤序列，向导开始后不可变（资料步骤提交时整体重算替换除外）。
type Mapping []StepCode

// DefaultMapping 初始化失败时的兜底序列，保证用户永远有页面可走。
func DefaultMapping() Mapping {
	return Mapping{
		StepLocation, StepAddress, StepProfile,
		StepCongrats, StepIssuingCard, StepCredentials,
		StepRegistrationFee,
	}
}

// At 取下标处的步骤，越界时夹取到 [0, len-1]。空序列返回 StepUnknown。
func (m Mapping) At(i int) StepCode {
	if len(m) == 0 {
		return StepUnknown
	}
	if i < 0 {
		i = 0
	}
	if i >= len(m) {
		i = len(m) - 1
	}
	return m[i]
}

// Contains 序列中是否含某步骤。
func (m Mapping) Contains(code StepCode) bool {
	for _, c := range m {
		if c == code {
			return true
		}
	}
	return false
}

// buildMapping 从步骤集合构造有序序列：去重、补齐祝贺序列、升序排序。
// 排序保证 4<5<6 且 7 恒为末位（编码即顺序）。
func buildMapping(codes map[StepCode]bool) Mapping {
	codes[StepCongrats] = true
	codes[StepIssuingCard] = true
	codes[StepCredentials] = true

	out := make(Mapping, 0, len(codes))
	for c := range codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
