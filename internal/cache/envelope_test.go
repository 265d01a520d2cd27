package cache

import (
	"testing"
	"time"
)

type envelopePayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestEnvelopeRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	raw, err := EncodeEnvelope(envelopePayload{Name: "wizard", Count: 3}, time.Hour, now)
	if err != nil {
		t.Fatalf("EncodeEnvelope returned error: %v", err)
	}

	var out envelopePayload
	if !DecodeEnvelope(raw, &out, now.Add(30*time.Minute)) {
		t.Fatal("decode within TTL should hit")
	}
	if out.Name != "wizard" || out.Count != 3 {
		t.Fatalf("decoded = %+v", out)
	}
}

func TestEnvelopeExpiry(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	raw, err := EncodeEnvelope(envelopePayload{Name: "wizard"}, time.Hour, now)
	if err != nil {
		t.Fatalf("EncodeEnvelope returned error: %v", err)
	}

	var out envelopePayload
	// 过期临界：到点即按未命中处理
	if DecodeEnvelope(raw, &out, now.Add(time.Hour)) {
		t.Fatal("decode at expiry instant should miss")
	}
	if DecodeEnvelope(raw, &out, now.Add(2*time.Hour)) {
		t.Fatal("decode after expiry should miss")
	}
}

func TestEnvelopeZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	raw, err := EncodeEnvelope(envelopePayload{Name: "wizard"}, 0, now)
	if err != nil {
		t.Fatalf("EncodeEnvelope returned error: %v", err)
	}

	var out envelopePayload
	if !DecodeEnvelope(raw, &out, now.AddDate(10, 0, 0)) {
		t.Fatal("zero TTL envelope should never expire")
	}
}

func TestEnvelopeVersionMismatchMisses(t *testing.T) {
	raw := []byte(`{"v":99,"data":{"name":"wizard"}}`)

	var out envelopePayload
	if DecodeEnvelope(raw, &out, time.Now()) {
		t.Fatal("unknown envelope version should miss")
	}
}

func TestEnvelopeGarbageMisses(t *testing.T) {
	var out envelopePayload

	if DecodeEnvelope([]byte("not json at all"), &out, time.Now()) {
		t.Fatal("unparseable payload should miss")
	}
	if DecodeEnvelope([]byte(`{"v":1,"data":"not an object"}`), &out, time.Now()) {
		t.Fatal("mismatched data shape should miss")
	}
}
