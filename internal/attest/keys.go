// Package attest signs canonical assessment bytes with a long-term Ed25519
// key and exposes the public key material for third-party verification.
package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// KeyProvider hands out the process-wide signing key. It is an explicit
// dependency rather than a package-level singleton so tests can substitute
// deterministic keys.
type KeyProvider interface {
	Private() ed25519.PrivateKey
	Public() ed25519.PublicKey
	KeyID() string
}

type staticKey struct {
	priv ed25519.PrivateKey
	kid  string
}

func (k *staticKey) Private() ed25519.PrivateKey { return k.priv }
func (k *staticKey) Public() ed25519.PublicKey   { return k.priv.Public().(ed25519.PublicKey) }
func (k *staticKey) KeyID() string               { return k.kid }

// NewKeyFromSeed builds a provider from a 32-byte Ed25519 seed.
func NewKeyFromSeed(seed []byte) (KeyProvider, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &staticKey{priv: priv, kid: deriveKeyID(priv.Public().(ed25519.PublicKey))}, nil
}

// GenerateKey creates a fresh random key. Used for development and tests;
// production deployments load a persistent seed via LoadKeyFile.
func GenerateKey() (KeyProvider, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &staticKey{priv: priv, kid: deriveKeyID(priv.Public().(ed25519.PublicKey))}, nil
}

// LoadKeyFile reads a hex-encoded 32-byte seed from path.
func LoadKeyFile(path string) (KeyProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}
	return NewKeyFromSeed(seed)
}

// WriteKeyFile writes the provider's seed as hex to path with 0600 perms.
func WriteKeyFile(path string, kp KeyProvider) error {
	seed := kp.Private().Seed()
	return os.WriteFile(path, []byte(hex.EncodeToString(seed)+"\n"), 0o600)
}

// deriveKeyID is the first 16 hex chars of SHA-256 over the public key.
func deriveKeyID(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:])[:16]
}
