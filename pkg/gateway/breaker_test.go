package gateway

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"Akshayapatra/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

var errUpstream = errors.New("gateway timeout")

func failingOp() error { return errUpstream }
func okOp() error      { return nil }

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Call(ctx, failingOp); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: err = %v, want upstream error", i, err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	// 熔断中直接快速失败
	if err := cb.Call(ctx, okOp); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("err = %v, want ErrBreakerOpen", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)
	ctx := context.Background()

	_ = cb.Call(ctx, failingOp)
	_ = cb.Call(ctx, failingOp)
	if err := cb.Call(ctx, okOp); err != nil {
		t.Fatalf("ok call returned %v", err)
	}

	// 计数已清零，再失败两次不应熔断
	_ = cb.Call(ctx, failingOp)
	_ = cb.Call(ctx, failingOp)
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.GetState())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	ctx := context.Background()

	_ = cb.Call(ctx, failingOp)
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	time.Sleep(20 * time.Millisecond)

	// 冷却后放行探测，成功即闭合
	if err := cb.Call(ctx, okOp); err != nil {
		t.Fatalf("probe call returned %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed after successful probe", cb.GetState())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	ctx := context.Background()

	_ = cb.Call(ctx, failingOp)
	time.Sleep(20 * time.Millisecond)

	if err := cb.Call(ctx, failingOp); !errors.Is(err, errUpstream) {
		t.Fatalf("probe err = %v, want upstream error", err)
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want reopened", cb.GetState())
	}
}

func TestBreakerHalfOpenCapsProbes(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	ctx := context.Background()

	_ = cb.Call(ctx, failingOp)
	time.Sleep(20 * time.Millisecond)

	blocked := make(chan struct{})
	release := make(chan struct{})
	slowOp := func() error {
		blocked <- struct{}{}
		<-release
		return nil
	}

	// 占满半开探测额度（3 次），第 4 次应被拒绝
	for i := 0; i < 3; i++ {
		go func() { _ = cb.Call(ctx, slowOp) }()
		<-blocked
	}

	if err := cb.Call(ctx, okOp); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("err = %v, want ErrBreakerOpen when probes exhausted", err)
	}

	close(release)
}
