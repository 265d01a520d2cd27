package setup

import (
	"context"
	"errors"
	"testing"

	"Akshayapatra/internal/model"
)

func int64Ptr(v int64) *int64 { return &v }

func TestResolveMissingSetTakesPriority(t *testing.T) {
	store := newMemStore()
	profiles := &stubProfiles{feeNeeded: true}
	mustSaveSet(t, store, 1, KeyMissingSteps, []string{TokenLocation, TokenRegistrationFee})

	// 快照显示一切齐全，但缺失集合非空时不看快照
	snapshot := &model.ProfileSnapshot{
		Country: "IN", State: "KA", District: "Bengaluru",
		StreetAddress:   "12 MG Road",
		InitialSchemeID: int64Ptr(7),
	}

	r := NewResolver(store, profiles)
	mapping, err := r.Resolve(context.Background(), 1, snapshot)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	want := []int{1, 4, 5, 6, 7}
	if !equalCodes(codesOf(mapping), want) {
		t.Fatalf("mapping = %v, want %v", codesOf(mapping), want)
	}
}

func TestResolveMilestoneSubtraction(t *testing.T) {
	store := newMemStore()
	profiles := &stubProfiles{}
	mustSaveSet(t, store, 1, KeyMissingSteps, []string{TokenLocation, TokenAddress, TokenProfile})
	mustSaveSet(t, store, 1, KeyMilestones, []string{TokenLocation, TokenAddress})

	r := NewResolver(store, profiles)
	mapping, err := r.Resolve(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	// 已完成的里程碑不再弹出，剩余 profile + 祝贺序列
	want := []int{3, 4, 5, 6}
	if !equalCodes(codesOf(mapping), want) {
		t.Fatalf("mapping = %v, want %v", codesOf(mapping), want)
	}
}

func TestResolveFromSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		snapshot  *model.ProfileSnapshot
		feeNeeded bool
		want      []int
	}{
		{
			name:     "nil snapshot needs everything",
			snapshot: nil,
			want:     []int{1, 2, 3, 4, 5, 6},
		},
		{
			name: "missing district still needs location",
			snapshot: &model.ProfileSnapshot{
				Country: "IN", State: "KA",
				StreetAddress:   "12 MG Road",
				InitialSchemeID: int64Ptr(7),
			},
			want: []int{1, 4, 5, 6},
		},
		{
			name: "no scheme needs profile step",
			snapshot: &model.ProfileSnapshot{
				Country: "IN", State: "KA", District: "Bengaluru",
				StreetAddress: "12 MG Road",
			},
			want: []int{3, 4, 5, 6},
		},
		{
			name: "core done fee owed",
			snapshot: &model.ProfileSnapshot{
				Country: "IN", State: "KA", District: "Bengaluru",
				StreetAddress:   "12 MG Road",
				InitialSchemeID: int64Ptr(7),
			},
			feeNeeded: true,
			want:      []int{4, 5, 6, 7},
		},
		{
			name: "core done no fee keeps congrats sequence",
			snapshot: &model.ProfileSnapshot{
				Country: "IN", State: "KA", District: "Bengaluru",
				StreetAddress:   "12 MG Road",
				InitialSchemeID: int64Ptr(7),
			},
			want: []int{4, 5, 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			profiles := &stubProfiles{feeNeeded: tt.feeNeeded}
			r := NewResolver(store, profiles)

			mapping, err := r.Resolve(context.Background(), 1, tt.snapshot)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if !equalCodes(codesOf(mapping), tt.want) {
				t.Fatalf("mapping = %v, want %v", codesOf(mapping), tt.want)
			}
		})
	}
}

func TestResolveEmptyWhenCelebrationSeen(t *testing.T) {
	store := newMemStore()
	profiles := &stubProfiles{feeNeeded: false}
	mustSaveSet(t, store, 1, KeyMilestones, []string{TokenCelebration})

	snapshot := &model.ProfileSnapshot{
		Country: "IN", State: "KA", District: "Bengaluru",
		StreetAddress:   "12 MG Road",
		InitialSchemeID: int64Ptr(7),
	}

	r := NewResolver(store, profiles)
	mapping, err := r.Resolve(context.Background(), 1, snapshot)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(mapping) != 0 {
		t.Fatalf("mapping = %v, want empty", codesOf(mapping))
	}
}

func TestResolveFeeCheckFailureAssumesOwed(t *testing.T) {
	store := newMemStore()
	profiles := &stubProfiles{feeErr: errors.New("db down")}

	snapshot := &model.ProfileSnapshot{
		Country: "IN", State: "KA", District: "Bengaluru",
		StreetAddress:   "12 MG Road",
		InitialSchemeID: int64Ptr(7),
	}

	r := NewResolver(store, profiles)
	mapping, err := r.Resolve(context.Background(), 1, snapshot)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !mapping.Contains(StepRegistrationFee) {
		t.Fatalf("mapping = %v, want registration fee step present", codesOf(mapping))
	}
}

func TestResolveStoreErrorPropagates(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("redis down")

	r := NewResolver(store, &stubProfiles{})
	if _, err := r.Resolve(context.Background(), 1, nil); err == nil {
		t.Fatal("Resolve should propagate store errors")
	}
}

func TestBuildMappingOrdering(t *testing.T) {
	mapping := buildMapping(map[StepCode]bool{
		StepRegistrationFee: true,
		StepLocation:        true,
	})

	// 祝贺序列强制补齐，注册费恒为末位
	want := []int{1, 4, 5, 6, 7}
	if !equalCodes(codesOf(mapping), want) {
		t.Fatalf("mapping = %v, want %v", codesOf(mapping), want)
	}
}

func TestMappingAtClamps(t *testing.T) {
	m := Mapping{StepLocation, StepAddress}

	if got := m.At(-1); got != StepLocation {
		t.Fatalf("At(-1) = %v, want StepLocation", got)
	}
	if got := m.At(5); got != StepAddress {
		t.Fatalf("At(5) = %v, want StepAddress", got)
	}
	if got := (Mapping{}).At(0); got != StepUnknown {
		t.Fatalf("empty At(0) = %v, want StepUnknown", got)
	}
}

func TestStepCodeStringAndTracked(t *testing.T) {
	if StepRegistrationFee.String() != "registration_fee" {
		t.Fatalf("unexpected string %q", StepRegistrationFee.String())
	}
	if StepCode(42).String() != "loading" {
		t.Fatalf("unknown step should render loading, got %q", StepCode(42).String())
	}
	if StepCongrats.Tracked() || StepIssuingCard.Tracked() || StepCredentials.Tracked() {
		t.Fatal("flow-only steps must not be tracked")
	}
	if !StepLocation.Tracked() || !StepRegistrationFee.Tracked() {
		t.Fatal("location and registration fee must be tracked")
	}
	if StepCongrats.Token() != "" {
		t.Fatalf("flow step token = %q, want empty", StepCongrats.Token())
	}
}
