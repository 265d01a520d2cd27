package cache

import (
	"encoding/json"
	"time"
)

// 所有落到存储里的向导值都包在版本化信封里：
// 解析失败、版本不符、已过期的读取一律按未命中处理，由调用方兜底，
// 绝不让一条坏数据把向导打挂。

// EnvelopeVersion 当前信封版本，格式不兼容时递增。
const EnvelopeVersion = 1

// Envelope 版本化存储信封。ExpiresAt 为零表示不过期。
type Envelope struct {
	Version   int             `json:"v"`
	Data      json.RawMessage `json:"data"`
	ExpiresAt int64           `json:"expires_at,omitempty"`
}

// EncodeEnvelope 打包值。ttl 为零表示不过期。
func EncodeEnvelope(value interface{}, ttl time.Duration, now time.Time) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	env := Envelope{
		Version: EnvelopeVersion,
		Data:    data,
	}
	if ttl > 0 {
		env.ExpiresAt = now.Add(ttl).Unix()
	}

	return json.Marshal(env)
}

// DecodeEnvelope 解包到 dest，返回是否命中。
// 解析失败、版本不符、已过期都返回 false，不报错。
func DecodeEnvelope(raw []byte, dest interface{}, now time.Time) bool {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}

	if env.Version != EnvelopeVersion {
		return false
	}

	if env.ExpiresAt > 0 && now.Unix() >= env.ExpiresAt {
		return false
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		return false
	}

	return true
}
