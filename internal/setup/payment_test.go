package setup

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubUsers struct {
	name  string
	phone string
	err   error
}

func (u *stubUsers) UserInfo(ctx context.Context, userID int64) (string, string, error) {
	return u.name, u.phone, u.err
}

func fixedTxnID(id string) func() (string, error) {
	return func() (string, error) { return id, nil }
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
}

func TestReconcileSuccess(t *testing.T) {
	r := NewReconciler(&stubUsers{name: "Asha Rao", phone: "98****3210"}, fixedTxnID("srv-1"), "500.00").
		WithNow(fixedNow)

	result, err := r.Reconcile(context.Background(), 1,
		"https://app.example.com/setup?payment=success&txn_id=txn-42&amount=500.00&method=upi&scheme=7&tab=wizard")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %s, want success", result.Outcome)
	}

	receipt := result.Receipt
	if receipt == nil {
		t.Fatal("success outcome must carry a receipt")
	}
	if receipt.TransactionID != "txn-42" {
		t.Fatalf("transaction_id = %q, want txn-42", receipt.TransactionID)
	}
	if receipt.Amount != "500.00" || receipt.PaymentMethod != "upi" {
		t.Fatalf("receipt = %+v", receipt)
	}
	if receipt.UserName != "Asha Rao" || receipt.UserPhone != "98****3210" {
		t.Fatalf("user info = %q / %q", receipt.UserName, receipt.UserPhone)
	}
	if receipt.SchemeID == nil || *receipt.SchemeID != 7 {
		t.Fatalf("scheme_id = %v, want 7", receipt.SchemeID)
	}
	if receipt.Timestamp != "2026-08-15T10:30:00Z" {
		t.Fatalf("timestamp = %q", receipt.Timestamp)
	}

	// 支付参数剥除，其余参数保留
	if result.CleanURL != "https://app.example.com/setup?tab=wizard" {
		t.Fatalf("clean_url = %q", result.CleanURL)
	}
}

func TestReconcileFailed(t *testing.T) {
	r := NewReconciler(&stubUsers{}, fixedTxnID("srv-1"), "500.00")

	result, err := r.Reconcile(context.Background(), 1,
		"https://app.example.com/setup?payment=failed&txn_id=txn-42")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", result.Outcome)
	}
	if result.Receipt != nil {
		t.Fatal("failed outcome must not carry a receipt")
	}
	if result.CleanURL != "https://app.example.com/setup" {
		t.Fatalf("clean_url = %q", result.CleanURL)
	}
}

func TestReconcileNoPaymentParams(t *testing.T) {
	r := NewReconciler(&stubUsers{}, fixedTxnID("srv-1"), "500.00")

	result, err := r.Reconcile(context.Background(), 1, "https://app.example.com/setup?tab=wizard")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Outcome != OutcomeNone {
		t.Fatalf("outcome = %s, want none", result.Outcome)
	}
	if result.CleanURL != "https://app.example.com/setup?tab=wizard" {
		t.Fatalf("clean_url = %q, URL must be untouched", result.CleanURL)
	}
}

func TestReconcileGeneratesTxnIDWhenAbsent(t *testing.T) {
	r := NewReconciler(&stubUsers{}, fixedTxnID("srv-generated"), "500.00")

	result, err := r.Reconcile(context.Background(), 1, "https://app.example.com/setup?payment=success")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Receipt.TransactionID != "srv-generated" {
		t.Fatalf("transaction_id = %q, want srv-generated", result.Receipt.TransactionID)
	}
	// 金额与方式落默认值
	if result.Receipt.Amount != "500.00" {
		t.Fatalf("amount = %q, want default 500.00", result.Receipt.Amount)
	}
	if result.Receipt.PaymentMethod != "gateway" {
		t.Fatalf("method = %q, want gateway", result.Receipt.PaymentMethod)
	}
}

func TestReconcileUserInfoFailureStillShowsReceipt(t *testing.T) {
	r := NewReconciler(&stubUsers{err: errors.New("db down")}, fixedTxnID("srv-1"), "500.00")

	result, err := r.Reconcile(context.Background(), 1, "https://app.example.com/setup?payment=success&txn_id=t1")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Outcome != OutcomeSuccess || result.Receipt == nil {
		t.Fatalf("result = %+v, want success with receipt", result)
	}
	if result.Receipt.UserName != "" || result.Receipt.UserPhone != "" {
		t.Fatalf("user info should be empty on lookup failure, got %q / %q",
			result.Receipt.UserName, result.Receipt.UserPhone)
	}
}

func TestReconcileBadSchemeParamIgnored(t *testing.T) {
	r := NewReconciler(&stubUsers{}, fixedTxnID("srv-1"), "500.00")

	result, err := r.Reconcile(context.Background(), 1,
		"https://app.example.com/setup?payment=success&txn_id=t1&scheme=notanumber")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if result.Receipt.SchemeID != nil {
		t.Fatalf("scheme_id = %v, want nil for unparseable value", result.Receipt.SchemeID)
	}
}
