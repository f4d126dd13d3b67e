package attest

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/clauselens/clauselens/internal/canonical"
)

// Algorithm is the fixed signature scheme. Ed25519 is deterministic: the
// same payload and key always yield the same signature.
const Algorithm = "ed25519"

// Signature carries the signing output for one payload.
type Signature struct {
	Signature   string `json:"signature"`    // base64 (std) over canonical bytes
	PayloadHash string `json:"payload_hash"` // lowercase hex sha256 of canonical bytes
	KeyID       string `json:"key_id"`
	Algorithm   string `json:"algorithm"`
}

// Signer signs and verifies canonicalized payloads.
type Signer struct {
	keys KeyProvider
}

// NewSigner creates a signer around the given key provider.
func NewSigner(keys KeyProvider) *Signer {
	return &Signer{keys: keys}
}

// KeyID returns the active key identifier.
func (s *Signer) KeyID() string { return s.keys.KeyID() }

// PublicKey returns the raw public key bytes.
func (s *Signer) PublicKey() ed25519.PublicKey { return s.keys.Public() }

// Sign canonicalizes payload and signs the canonical bytes. The payload hash
// is derived from the same bytes for display and audit.
func (s *Signer) Sign(payload any) (Signature, error) {
	hash, b, err := canonical.Sum(payload)
	if err != nil {
		return Signature{}, fmt.Errorf("sign: %w", err)
	}
	sig := ed25519.Sign(s.keys.Private(), b)
	return Signature{
		Signature:   base64.StdEncoding.EncodeToString(sig),
		PayloadHash: hash,
		KeyID:       s.keys.KeyID(),
		Algorithm:   Algorithm,
	}, nil
}

// Verify re-canonicalizes payload and checks sigB64 against the public key.
// Any mismatch, malformed signature or wrong key yields false, never an
// error condition for the caller.
func (s *Signer) Verify(payload any, sigB64 string) bool {
	return VerifyWithKey(s.keys.Public(), payload, sigB64)
}

// VerifyWithKey verifies a signature against an arbitrary public key, so
// third parties can check assessments using the published key set.
func VerifyWithKey(pub ed25519.PublicKey, payload any, sigB64 string) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	b, err := canonical.Marshal(payload)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, b, sig)
}

// Expired reports whether an RFC3339 expires_at timestamp has passed at now.
// Expiry is a caller concern, deliberately separate from signature validity:
// a malformed timestamp counts as expired (fail closed).
func Expired(expiresAt string, now time.Time) bool {
	t, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return true
	}
	return now.After(t)
}
