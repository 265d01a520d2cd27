package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"Akshayapatra/pkg/errors"
)

func newTestHTTPClient() *HTTPClient {
	return &HTTPClient{secret: []byte("test-secret")}
}

func TestSignDeterministicKeyOrder(t *testing.T) {
	c := newTestHTTPClient()

	params := map[string]string{
		"transaction_id": "txn-1",
		"amount":         "500.00",
		"status":         "success",
	}

	// 手算：按键升序拼 k=v&k=v 后 HMAC-SHA256
	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte("amount=500.00&status=success&transaction_id=txn-1"))
	want := hex.EncodeToString(mac.Sum(nil))

	if got := c.sign(params); got != want {
		t.Fatalf("sign = %q, want %q", got, want)
	}
}

func TestSignExcludesSignatureKey(t *testing.T) {
	c := newTestHTTPClient()

	base := map[string]string{"transaction_id": "txn-1", "status": "success"}
	withSig := map[string]string{"transaction_id": "txn-1", "status": "success", "signature": "whatever"}

	if c.sign(base) != c.sign(withSig) {
		t.Fatal("signature key must not participate in signing")
	}
}

func TestVerifyCallbackRoundTrip(t *testing.T) {
	c := newTestHTTPClient()

	params := map[string]string{
		"transaction_id": "txn-1",
		"amount":         "500.00",
		"status":         "success",
	}
	sig := c.sign(params)

	if err := c.VerifyCallback(params, sig); err != nil {
		t.Fatalf("VerifyCallback returned %v for a valid signature", err)
	}
}

func TestVerifyCallbackTamperedParams(t *testing.T) {
	c := newTestHTTPClient()

	params := map[string]string{
		"transaction_id": "txn-1",
		"amount":         "500.00",
		"status":         "success",
	}
	sig := c.sign(params)

	params["amount"] = "5.00"
	if err := c.VerifyCallback(params, sig); err != errors.PaymentSignatureBad {
		t.Fatalf("err = %v, want PaymentSignatureBad", err)
	}
}

func TestVerifyCallbackWrongSecret(t *testing.T) {
	params := map[string]string{"transaction_id": "txn-1", "status": "success"}

	other := &HTTPClient{secret: []byte("other-secret")}
	sig := other.sign(params)

	if err := newTestHTTPClient().VerifyCallback(params, sig); err != errors.PaymentSignatureBad {
		t.Fatalf("err = %v, want PaymentSignatureBad", err)
	}
}
