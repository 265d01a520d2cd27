package utils


import (
	"regexp"
)

// ValidatePhone 校验印度手机号，允许带 +91 前缀
func ValidatePhone(phone string) bool {
	matched, _ := regexp.MatchString(`^(\+91)?[6-9]\d{9}$`, phone)
	return matched
}