package momo

import "testing"

func TestSignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"transaction_id":"tx-42","amount":100}`)
	secret := "shared-secret"

	sig := GenerateSignature(payload, secret)
	if !VerifySignature(payload, sig, secret) {
		t.Fatal("expected signature to verify")
	}
}

func TestSignatureRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"amount":100}`)
	secret := "shared-secret"

	sig := GenerateSignature(payload, secret)
	if VerifySignature([]byte(`{"amount":999}`), sig, secret) {
		t.Fatal("expected tampered payload to fail verification")
	}
}

func TestSignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"amount":100}`)

	sig := GenerateSignature(payload, "secret-a")
	if VerifySignature(payload, sig, "secret-b") {
		t.Fatal("expected wrong secret to fail verification")
	}
}

func TestSignatureRejectsEmpty(t *testing.T) {
	if VerifySignature([]byte("payload"), "", "secret") {
		t.Fatal("expected empty signature to fail verification")
	}
}
