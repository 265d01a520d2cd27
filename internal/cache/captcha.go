package cache

import (
	"context"
	"time"

	ri "github.com/redis/go-redis/v9"

	"Akshayapatra/config"
	"Akshayapatra/storage/redis"
)

// 验证码存储：akpt:captcha:{phoneHash}:{scene}
// TTL: CAPTCHA_EXPIRE_SECONDS

// 每日发送计数：akpt:captcha:count:{phoneHash}:{date}
// TTL: 到次日零点

const (
	cap = "captcha"
)

// SetCaptcha 存储验证码
// scene: 代表具体的场景，注册还是登录，对应不同的短信模板
func SetCaptcha(ctx context.Context, phoneHash, scene, code string) error {
	key := redis.Key(cap, phoneHash, scene)
	ttl := time.Duration(config.Cfg.CaptchaExpireSeconds) * time.Second

	return redis.Client().Set(ctx, key, code, ttl).Err()
}

func GetCaptcha(ctx context.Context, phoneHash, scene string) (string, error) {
	key := redis.Key(cap, phoneHash, scene)
	return redis.Client().Get(ctx, key).Result()
}

func DeleteCaptcha(ctx context.Context, phoneHash, scene string) error {
	key := redis.Key(cap, phoneHash, scene)
	return redis.Client().Del(ctx, key).Err()
}

// IncrCaptchaCount 增加今日发送计数，返回当前次数
func IncrCaptchaCount(ctx context.Context, phoneHash string) (int, error) {
	date := time.Now().Format("2006-01-02")
	key := redis.Key(cap, "count", phoneHash, date)

	count, err := redis.Client().Incr(ctx, key).Result()

	if err != nil {
		return 0, err //具体在业务层处理报错
	}

	if count == 1 { //今天第一次访问，设定第二天才过期
		now := time.Now()
		tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		ttl := tomorrow.Sub(now)
		redis.Client().Expire(ctx, key, ttl)
	}

	return int(count), nil
}

func GetCaptchaCount(ctx context.Context, phoneHash string) (int, error) {
	date := time.Now().Format("2006-01-02")
	key := redis.Key(cap, "count", phoneHash, date)

	count, err := redis.Client().Get(ctx, key).Int()
	if err == ri.Nil {
		return 0, nil
	}

	return count, err
}
