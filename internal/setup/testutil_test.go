package setup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"Akshayapatra/internal/model"
	"Akshayapatra/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

// memStore 内存实现的向导存储，JSON 编解码对齐生产行为
type memStore struct {
	data     map[string][]byte
	getErr   error
	setErr   error
	setCalls int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func storeKey(userID int64, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

func (s *memStore) Get(ctx context.Context, userID int64, key string, dest interface{}) (bool, error) {
	if s.getErr != nil {
		return false, s.getErr
	}
	raw, ok := s.data[storeKey(userID, key)]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *memStore) Set(ctx context.Context, userID int64, key string, value interface{}, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.setCalls++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[storeKey(userID, key)] = raw
	return nil
}

func (s *memStore) Delete(ctx context.Context, userID int64, key string) error {
	delete(s.data, storeKey(userID, key))
	return nil
}

// memLocker 进程内锁
type memLocker struct {
	held    map[string]bool
	denyAll bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]bool{}}
}

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l.denyAll || l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Unlock(ctx context.Context, key string) error {
	delete(l.held, key)
	return nil
}

// stubProfiles 可配置的资料服务桩
type stubProfiles struct {
	status      *CompletionStatus
	statusErr   error
	snapshot    *model.ProfileSnapshot
	snapshotErr error
	feeNeeded   bool
	feeErr      error
	updateErr   error

	ensureCalls int
	finishCalls int
	updateCalls int
}

func (p *stubProfiles) CompletionStatus(ctx context.Context, userID int64) (*CompletionStatus, error) {
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	if p.status == nil {
		return &CompletionStatus{IsComplete: false, MissingSteps: nil}, nil
	}
	return p.status, nil
}

func (p *stubProfiles) EnsureProfile(ctx context.Context, userID int64) error {
	p.ensureCalls++
	return nil
}

func (p *stubProfiles) FetchSnapshot(ctx context.Context, userID int64) (*model.ProfileSnapshot, error) {
	if p.snapshotErr != nil {
		return nil, p.snapshotErr
	}
	return p.snapshot, nil
}

func (p *stubProfiles) RegistrationFeeNeeded(ctx context.Context, userID int64) (bool, error) {
	if p.feeErr != nil {
		return false, p.feeErr
	}
	return p.feeNeeded, nil
}

func (p *stubProfiles) UpdateProfile(ctx context.Context, userID int64, fullName, phone string, schemeID *int64) error {
	p.updateCalls++
	return p.updateErr
}

func (p *stubProfiles) FinishSetup(ctx context.Context, userID int64) error {
	p.finishCalls++
	return nil
}

// stubReferrals 记录绑定调用
type stubReferrals struct {
	codes []string
	err   error
}

func (r *stubReferrals) AttachByCode(ctx context.Context, userID int64, code string) error {
	r.codes = append(r.codes, code)
	return r.err
}

func mustSaveSet(t *testing.T, store Store, userID int64, key string, tokens []string) {
	t.Helper()
	if err := store.Set(context.Background(), userID, key, tokens, time.Hour); err != nil {
		t.Fatalf("failed to seed %s: %v", key, err)
	}
}

func mustSaveState(t *testing.T, store Store, userID int64, state State) {
	t.Helper()
	if err := store.Set(context.Background(), userID, KeyState, state, time.Hour); err != nil {
		t.Fatalf("failed to seed state: %v", err)
	}
}

func codesOf(m Mapping) []int {
	out := make([]int, 0, len(m))
	for _, c := range m {
		out = append(out, int(c))
	}
	return out
}

func equalCodes(a []int, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
