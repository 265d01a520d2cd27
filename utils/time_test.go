package utils

import (
	"testing"
	"time"
)

func TestFormatMonth(t *testing.T) {
	got := FormatMonth(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	if got != "2026-08" {
		t.Fatalf("FormatMonth = %q, want 2026-08", got)
	}
}

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), "2026-07"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2025-12"}, // 跨年
		{time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC), "2026-02"},
	}

	for _, tt := range tests {
		if got := PreviousMonth(tt.in); got != tt.want {
			t.Errorf("PreviousMonth(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	got, err := ParseTime("09:30:00", date)
	if err != nil {
		t.Fatalf("ParseTime returned error: %v", err)
	}
	want := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseTime = %v, want %v", got, want)
	}

	// 空串返回原日期
	got, err = ParseTime("", date)
	if err != nil || !got.Equal(date) {
		t.Fatalf("ParseTime(\"\") = %v, %v", got, err)
	}

	if _, err := ParseTime("25:99", date); err == nil {
		t.Fatal("malformed time string should error")
	}
}
