package gateway

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMockClientRedirect(t *testing.T) {
	m := NewMockClient()

	resp, err := m.Initiate(context.Background(), &InitiateRequest{
		UserID:        1,
		TransactionID: "txn-42",
		Amount:        decimal.RequireFromString("500"),
		Purpose:       "registration_fee",
		ReturnURL:     "https://app.example.com/setup",
	})
	if err != nil {
		t.Fatalf("Initiate returned error: %v", err)
	}

	want := "https://app.example.com/setup?payment=success&txn_id=txn-42&amount=500.00"
	if resp.RedirectURL != want {
		t.Fatalf("redirect = %q, want %q", resp.RedirectURL, want)
	}
	if resp.GatewayRef != "mock-order-txn-42" {
		t.Fatalf("gateway_ref = %q", resp.GatewayRef)
	}
	if len(m.Calls) != 1 || m.Calls[0].TransactionID != "txn-42" {
		t.Fatalf("calls = %+v, want one recorded call", m.Calls)
	}
}

func TestMockClientFailNextAutoResets(t *testing.T) {
	m := NewMockClient()
	m.FailNext = true

	req := &InitiateRequest{
		TransactionID: "txn-1",
		Amount:        decimal.RequireFromString("100"),
		ReturnURL:     "https://app.example.com/setup",
	}

	if _, err := m.Initiate(context.Background(), req); err == nil {
		t.Fatal("first call should fail when FailNext is set")
	}
	if _, err := m.Initiate(context.Background(), req); err != nil {
		t.Fatalf("second call should succeed, got %v", err)
	}
	if len(m.Calls) != 2 {
		t.Fatalf("calls = %d, want both calls recorded", len(m.Calls))
	}
}

func TestMockClientVerifyCallbackAlwaysPasses(t *testing.T) {
	m := NewMockClient()
	if err := m.VerifyCallback(map[string]string{"status": "success"}, ""); err != nil {
		t.Fatalf("mock verify returned %v", err)
	}
}
