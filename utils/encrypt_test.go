package utils

import (
	"testing"

	"Akshayapatra/config"
)

func withTestKeys(t *testing.T) {
	t.Helper()
	prevKey := config.Cfg.EncryptionKey
	prevSalt := config.Cfg.PhoneHashSalt
	config.Cfg.EncryptionKey = "0123456789abcdef0123456789abcdef" // AES-256
	config.Cfg.PhoneHashSalt = "test-salt"
	t.Cleanup(func() {
		config.Cfg.EncryptionKey = prevKey
		config.Cfg.PhoneHashSalt = prevSalt
	})
}

func TestEncryptDecryptPhoneRoundTrip(t *testing.T) {
	withTestKeys(t)

	encoded, err := EncryptPhone("+919876543210")
	if err != nil {
		t.Fatalf("EncryptPhone returned error: %v", err)
	}
	if encoded == "+919876543210" {
		t.Fatal("ciphertext must differ from plaintext")
	}

	plain, err := DecryptPhone(encoded)
	if err != nil {
		t.Fatalf("DecryptPhone returned error: %v", err)
	}
	if plain != "+919876543210" {
		t.Fatalf("roundtrip = %q, want original phone", plain)
	}
}

func TestEncryptPhoneNonDeterministic(t *testing.T) {
	withTestKeys(t)

	a, err := EncryptPhone("9876543210")
	if err != nil {
		t.Fatalf("EncryptPhone returned error: %v", err)
	}
	b, err := EncryptPhone("9876543210")
	if err != nil {
		t.Fatalf("EncryptPhone returned error: %v", err)
	}
	// 随机 nonce，两次加密结果不同
	if a == b {
		t.Fatal("two encryptions of the same phone must not match")
	}
}

func TestDecryptPhoneRejectsGarbage(t *testing.T) {
	withTestKeys(t)

	if _, err := DecryptPhone("not base64!!"); err == nil {
		t.Fatal("invalid base64 should error")
	}
	if _, err := DecryptPhone("c2hvcnQ="); err == nil {
		t.Fatal("payload shorter than nonce should error")
	}
}

func TestHashPhoneDeterministicAndSalted(t *testing.T) {
	withTestKeys(t)

	a := HashPhone("9876543210")
	if a != HashPhone("9876543210") {
		t.Fatal("hash must be deterministic for the same salt")
	}
	if a == HashPhone("9876543211") {
		t.Fatal("different phones must hash differently")
	}

	config.Cfg.PhoneHashSalt = "another-salt"
	if a == HashPhone("9876543210") {
		t.Fatal("different salts must hash differently")
	}
}
