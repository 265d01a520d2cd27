package setup

import (
	"context"
	"errors"
	"testing"

	"Akshayapatra/internal/model"
)

type machineEnv struct {
	store     *memStore
	locker    *memLocker
	profiles  *stubProfiles
	referrals *stubReferrals
	machine   *Machine
}

func newMachineEnv(profiles *stubProfiles) *machineEnv {
	env := &machineEnv{
		store:     newMemStore(),
		locker:    newMemLocker(),
		profiles:  profiles,
		referrals: &stubReferrals{},
	}
	env.machine = NewMachine(1, env.store, profiles, env.referrals, env.locker, WithDelay(0))
	return env
}

func TestInitActiveFromMissingSteps(t *testing.T) {
	profiles := &stubProfiles{
		status: &CompletionStatus{IsComplete: false, MissingSteps: []string{TokenLocation, TokenAddress}},
	}
	env := newMachineEnv(profiles)

	state, err := env.machine.Init(context.Background(), "")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if state.Status != StatusActive {
		t.Fatalf("status = %s, want active", state.Status)
	}
	if state.Step != 0 {
		t.Fatalf("step = %d, want 0", state.Step)
	}
	want := []int{1, 2, 4, 5, 6}
	if !equalCodes(codesOf(state.Mapping), want) {
		t.Fatalf("mapping = %v, want %v", codesOf(state.Mapping), want)
	}
	if env.profiles.ensureCalls != 1 {
		t.Fatalf("ensureCalls = %d, want 1", env.profiles.ensureCalls)
	}

	// 状态已持久化，Current 能读回
	got, err := env.machine.Current(context.Background())
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if got.Status != StatusActive || !equalCodes(codesOf(got.Mapping), want) {
		t.Fatalf("persisted state mismatch: %+v", got)
	}
}

func TestInitCompleteRedirects(t *testing.T) {
	profiles := &stubProfiles{
		status: &CompletionStatus{IsComplete: true},
	}
	env := newMachineEnv(profiles)

	state, err := env.machine.Init(context.Background(), "")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if state.Status != StatusRedirecting {
		t.Fatalf("status = %s, want redirecting", state.Status)
	}
	if env.profiles.finishCalls != 1 {
		t.Fatalf("finishCalls = %d, want 1", env.profiles.finishCalls)
	}
	if len(env.store.data) != 0 {
		t.Fatalf("store should be cleared on completion, got %d keys", len(env.store.data))
	}
}

func TestInitCompleteWithPendingMissingKeepsWizard(t *testing.T) {
	profiles := &stubProfiles{
		status:    &CompletionStatus{IsComplete: true},
		feeNeeded: true,
	}
	env := newMachineEnv(profiles)
	mustSaveSet(t, env.store, 1, KeyMissingSteps, []string{TokenRegistrationFee})

	state, err := env.machine.Init(context.Background(), "")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if state.Status != StatusActive {
		t.Fatalf("status = %s, want active", state.Status)
	}
	if !state.Mapping.Contains(StepRegistrationFee) {
		t.Fatalf("mapping = %v, want registration fee present", codesOf(state.Mapping))
	}
}

func TestInitFallbackOnStatusError(t *testing.T) {
	profiles := &stubProfiles{statusErr: errors.New("profile service down")}
	env := newMachineEnv(profiles)

	state, err := env.machine.Init(context.Background(), "")
	if err != nil {
		t.Fatalf("fallback must not surface error, got %v", err)
	}
	if state.Status != StatusErrorFallback {
		t.Fatalf("status = %s, want error_fallback", state.Status)
	}
	if !equalCodes(codesOf(state.Mapping), codesOf(DefaultMapping())) {
		t.Fatalf("mapping = %v, want default mapping", codesOf(state.Mapping))
	}
}

func TestInitBootstrapRunsOnce(t *testing.T) {
	profiles := &stubProfiles{
		status: &CompletionStatus{IsComplete: false, MissingSteps: []string{TokenLocation}},
	}
	env := newMachineEnv(profiles)

	if _, err := env.machine.Init(context.Background(), ""); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if _, err := env.machine.Init(context.Background(), ""); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if env.profiles.ensureCalls != 1 {
		t.Fatalf("ensureCalls = %d, want 1", env.profiles.ensureCalls)
	}
}

func TestInitReferralHintAttached(t *testing.T) {
	profiles := &stubProfiles{
		status: &CompletionStatus{IsComplete: false, MissingSteps: []string{TokenLocation}},
	}
	env := newMachineEnv(profiles)

	if _, err := env.machine.Init(context.Background(), "FRIEND88"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(env.referrals.codes) != 1 || env.referrals.codes[0] != "FRIEND88" {
		t.Fatalf("attach codes = %v, want [FRIEND88]", env.referrals.codes)
	}
}

func TestInitReferralFallsBackToStoredCode(t *testing.T) {
	profiles := &stubProfiles{
		status: &CompletionStatus{IsComplete: false, MissingSteps: []string{TokenLocation}},
	}
	env := newMachineEnv(profiles)
	if err := env.store.Set(context.Background(), 1, KeyReferralCode, "SAVED123", 0); err != nil {
		t.Fatalf("seed referral code: %v", err)
	}

	if _, err := env.machine.Init(context.Background(), ""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(env.referrals.codes) != 1 || env.referrals.codes[0] != "SAVED123" {
		t.Fatalf("attach codes = %v, want [SAVED123]", env.referrals.codes)
	}
}

func TestAdvanceTrackedStep(t *testing.T) {
	env := newMachineEnv(&stubProfiles{})
	mustSaveSet(t, env.store, 1, KeyMissingSteps, []string{TokenLocation, TokenAddress})
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepLocation, StepAddress, StepCongrats, StepIssuingCard, StepCredentials},
		Step:    0,
	})

	state, err := env.machine.Advance(context.Background(), 0)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Step != 1 {
		t.Fatalf("step = %d, want 1", state.Step)
	}
	if state.Loading {
		t.Fatal("loading latch must be cleared after advance")
	}

	var milestones []string
	if _, err := env.store.Get(context.Background(), 1, KeyMilestones, &milestones); err != nil {
		t.Fatalf("read milestones: %v", err)
	}
	if !NewStringSet(milestones).Contains(TokenLocation) {
		t.Fatalf("milestones = %v, want location recorded", milestones)
	}

	var missing []string
	if _, err := env.store.Get(context.Background(), 1, KeyMissingSteps, &missing); err != nil {
		t.Fatalf("read missing: %v", err)
	}
	if NewStringSet(missing).Contains(TokenLocation) {
		t.Fatalf("missing = %v, location should be removed", missing)
	}
}

func TestAdvanceCompletesOnFeeStep(t *testing.T) {
	env := newMachineEnv(&stubProfiles{})
	mustSaveSet(t, env.store, 1, KeyMissingSteps, []string{TokenRegistrationFee})
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepCongrats, StepIssuingCard, StepCredentials, StepRegistrationFee},
		Step:    3,
	})

	state, err := env.machine.Advance(context.Background(), 3)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Status != StatusRedirecting {
		t.Fatalf("status = %s, want redirecting", state.Status)
	}
	if env.profiles.finishCalls != 1 {
		t.Fatalf("finishCalls = %d, want 1", env.profiles.finishCalls)
	}
}

func TestAdvanceMidSequenceDoesNotComplete(t *testing.T) {
	// 核心步骤完成后仍要走完祝贺序列，不能提前退出
	env := newMachineEnv(&stubProfiles{})
	mustSaveSet(t, env.store, 1, KeyMissingSteps, []string{TokenProfile})
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepProfile, StepCongrats, StepIssuingCard, StepCredentials},
		Step:    0,
	})

	state, err := env.machine.Advance(context.Background(), 0)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Status != StatusActive {
		t.Fatalf("status = %s, want active", state.Status)
	}
	if state.Step != 1 {
		t.Fatalf("step = %d, want 1", state.Step)
	}
}

func TestAdvanceCredentialsMarksCelebration(t *testing.T) {
	env := newMachineEnv(&stubProfiles{})
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepCongrats, StepIssuingCard, StepCredentials, StepRegistrationFee},
		Step:    2,
	})

	state, err := env.machine.Advance(context.Background(), 2)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Step != 3 {
		t.Fatalf("step = %d, want 3", state.Step)
	}

	var milestones []string
	if _, err := env.store.Get(context.Background(), 1, KeyMilestones, &milestones); err != nil {
		t.Fatalf("read milestones: %v", err)
	}
	if !NewStringSet(milestones).Contains(TokenCelebration) {
		t.Fatalf("milestones = %v, want celebration recorded", milestones)
	}
}

func TestAdvanceEndWithoutFeeCompletes(t *testing.T) {
	env := newMachineEnv(&stubProfiles{})
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepCongrats, StepIssuingCard, StepCredentials},
		Step:    2,
	})

	state, err := env.machine.Advance(context.Background(), 2)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Status != StatusRedirecting {
		t.Fatalf("status = %s, want redirecting", state.Status)
	}
}

func TestAdvanceClampsAtFeeStep(t *testing.T) {
	// 缺失集合未清空时停在注册费步骤等待支付
	env := newMachineEnv(&stubProfiles{})
	mustSaveSet(t, env.store, 1, KeyMissingSteps, []string{TokenRegistrationFee, TokenProfile})
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepCongrats, StepIssuingCard, StepCredentials, StepRegistrationFee},
		Step:    3,
	})

	state, err := env.machine.Advance(context.Background(), 3)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Status != StatusActive {
		t.Fatalf("status = %s, want active", state.Status)
	}
	if state.Step != 3 {
		t.Fatalf("step = %d, want clamped at 3", state.Step)
	}
}

func TestAdvanceLoadingLatchSuppressesReentry(t *testing.T) {
	env := newMachineEnv(&stubProfiles{})
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepLocation, StepCongrats},
		Step:    0,
		Loading: true,
	})

	state, err := env.machine.Advance(context.Background(), 0)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Step != 0 || !state.Loading {
		t.Fatalf("latched state must be returned as-is, got %+v", state)
	}
}

func TestAdvanceLockDeniedReturnsCurrentState(t *testing.T) {
	env := newMachineEnv(&stubProfiles{})
	env.locker.denyAll = true
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepLocation, StepCongrats},
		Step:    0,
	})

	state, err := env.machine.Advance(context.Background(), 0)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Step != 0 {
		t.Fatalf("step = %d, want unchanged", state.Step)
	}
}

func TestAdvanceUninitializedIsNoop(t *testing.T) {
	env := newMachineEnv(&stubProfiles{})

	state, err := env.machine.Advance(context.Background(), 0)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if state.Status != StatusUninitialized {
		t.Fatalf("status = %s, want uninitialized", state.Status)
	}
}

func TestSubmitProfileRecomputesMapping(t *testing.T) {
	profiles := &stubProfiles{
		snapshot: &model.ProfileSnapshot{
			Country: "IN", State: "KA", District: "Bengaluru",
			StreetAddress:   "12 MG Road",
			InitialSchemeID: int64Ptr(7),
		},
		feeNeeded: true,
	}
	env := newMachineEnv(profiles)
	mustSaveSet(t, env.store, 1, KeyMissingSteps, []string{TokenProfile})
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepProfile, StepCongrats, StepIssuingCard, StepCredentials},
		Step:    0,
	})

	schemeID := int64(7)
	state, err := env.machine.SubmitProfile(context.Background(), "Asha Rao", "+919876543210", &schemeID, "FRIEND88")
	if err != nil {
		t.Fatalf("SubmitProfile returned error: %v", err)
	}
	if profiles.updateCalls != 1 {
		t.Fatalf("updateCalls = %d, want 1", profiles.updateCalls)
	}
	if len(env.referrals.codes) != 1 || env.referrals.codes[0] != "FRIEND88" {
		t.Fatalf("attach codes = %v, want [FRIEND88]", env.referrals.codes)
	}
	// 缺失集合清空后按快照重算，注册费步骤进入序列
	if !state.Mapping.Contains(StepRegistrationFee) {
		t.Fatalf("mapping = %v, want registration fee after recompute", codesOf(state.Mapping))
	}
	if state.Step != 1 {
		t.Fatalf("step = %d, want 1", state.Step)
	}
	if state.Loading {
		t.Fatal("loading latch must be cleared")
	}
}

func TestSubmitProfileUpdateFailureKeepsStep(t *testing.T) {
	profiles := &stubProfiles{updateErr: errors.New("phone taken")}
	env := newMachineEnv(profiles)
	mustSaveState(t, env.store, 1, State{
		Status:  StatusActive,
		Mapping: Mapping{StepProfile, StepCongrats},
		Step:    0,
	})

	_, err := env.machine.SubmitProfile(context.Background(), "Asha Rao", "", nil, "")
	if err == nil {
		t.Fatal("SubmitProfile should surface the update error")
	}

	stored, cerr := env.machine.Current(context.Background())
	if cerr != nil {
		t.Fatalf("Current returned error: %v", cerr)
	}
	if stored.Step != 0 {
		t.Fatalf("step = %d, want user kept on profile step", stored.Step)
	}
	if stored.Loading {
		t.Fatal("loading latch must be cleared after failed save")
	}
}

func TestSubmitProfileSnapshotFailureKeepsMapping(t *testing.T) {
	profiles := &stubProfiles{snapshotErr: errors.New("db down")}
	env := newMachineEnv(profiles)
	mapping := Mapping{StepProfile, StepCongrats, StepIssuingCard, StepCredentials}
	mustSaveState(t, env.store, 1, State{Status: StatusActive, Mapping: mapping, Step: 0})

	state, err := env.machine.SubmitProfile(context.Background(), "Asha Rao", "", nil, "")
	if err != nil {
		t.Fatalf("SubmitProfile returned error: %v", err)
	}
	if !equalCodes(codesOf(state.Mapping), codesOf(mapping)) {
		t.Fatalf("mapping = %v, want original kept on recompute failure", codesOf(state.Mapping))
	}
	if state.Step != 1 {
		t.Fatalf("step = %d, want 1", state.Step)
	}
}
