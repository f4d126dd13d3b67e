package attest

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	seed := bytes.Repeat([]byte{0x42}, 32)
	kp, err := NewKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("NewKeyFromSeed: %v", err)
	}
	return NewSigner(kp)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	s := testSigner(t)
	payload := map[string]any{"assessment_id": "a-1", "risk_level": "yellow"}

	sig, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if sig.Algorithm != "ed25519" {
		t.Errorf("unexpected algorithm %q", sig.Algorithm)
	}
	if len(sig.PayloadHash) != 64 {
		t.Errorf("expected hex sha256 payload hash, got %q", sig.PayloadHash)
	}

	if !s.Verify(payload, sig.Signature) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestSignVerify_InsertionOrderIrrelevant(t *testing.T) {
	s := testSigner(t)
	sig, err := s.Sign(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	// Same logical value, different insertion order.
	if !s.Verify(map[string]any{"a": 1, "b": 2}, sig.Signature) {
		t.Fatal("expected signature to survive re-serialization")
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	s := testSigner(t)
	sig, err := s.Sign(map[string]any{"risk_score": 4})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if s.Verify(map[string]any{"risk_score": 5}, sig.Signature) {
		t.Fatal("expected mutated payload to fail verification")
	}
}

func TestVerify_MalformedSignature(t *testing.T) {
	s := testSigner(t)
	payload := map[string]any{"a": 1}

	for _, sig := range []string{"", "not-base64!!!", base64.StdEncoding.EncodeToString([]byte("short"))} {
		if s.Verify(payload, sig) {
			t.Errorf("expected false for malformed signature %q", sig)
		}
	}
}

func TestVerify_WrongKey(t *testing.T) {
	s := testSigner(t)
	other, err := NewKeyFromSeed(bytes.Repeat([]byte{0x07}, 32))
	if err != nil {
		t.Fatalf("NewKeyFromSeed: %v", err)
	}
	payload := map[string]any{"a": 1}
	sig, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if VerifyWithKey(other.Public(), payload, sig.Signature) {
		t.Fatal("expected verification under wrong key to fail")
	}
}

func TestSign_Deterministic(t *testing.T) {
	s := testSigner(t)
	payload := map[string]any{"a": []any{1, 2, 3}}

	first, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	second, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if first.Signature != second.Signature || first.PayloadHash != second.PayloadHash {
		t.Fatal("expected identical signatures for identical payload and key")
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	if Expired(now.Add(time.Minute).Format(time.RFC3339), now) {
		t.Error("future expiry reported as expired")
	}
	if !Expired(now.Add(-time.Minute).Format(time.RFC3339), now) {
		t.Error("past expiry not reported as expired")
	}
	if !Expired("garbage", now) {
		t.Error("malformed expiry must fail closed")
	}
}

func TestPublicJWKS(t *testing.T) {
	s := testSigner(t)
	jwks := s.PublicJWKS()

	if len(jwks.Keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(jwks.Keys))
	}
	k := jwks.Keys[0]
	if k.Kty != "OKP" || k.Crv != "Ed25519" || k.Use != "sig" {
		t.Errorf("unexpected key metadata: %+v", k)
	}
	raw, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil || len(raw) != 32 {
		t.Errorf("expected base64url 32-byte public key, got %q", k.X)
	}
	if k.Kid != s.KeyID() {
		t.Errorf("kid mismatch: %q vs %q", k.Kid, s.KeyID())
	}
}

func TestKeyFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/signing.key"

	kp, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if err := WriteKeyFile(path, kp); err != nil {
		t.Fatalf("WriteKeyFile: %v", err)
	}
	loaded, err := LoadKeyFile(path)
	if err != nil {
		t.Fatalf("LoadKeyFile: %v", err)
	}
	if loaded.KeyID() != kp.KeyID() {
		t.Errorf("key id changed across persistence: %q vs %q", loaded.KeyID(), kp.KeyID())
	}
}
