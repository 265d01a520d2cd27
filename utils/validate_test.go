package utils

import "testing"

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"+919876543210", true},
		{"5876543210", false},  // 首位必须 6-9
		{"987654321", false},   // 位数不足
		{"98765432100", false}, // 位数超出
		{"+9198765432", false},
		{"919876543210", false}, // 裸 91 前缀不接受
		{"98765abc10", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidatePhone(tt.phone); got != tt.want {
			t.Errorf("ValidatePhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}
