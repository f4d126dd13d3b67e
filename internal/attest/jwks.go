package attest

import "encoding/base64"

// JWK is a single public key entry in the published key set.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	X   string `json:"x"`
}

// JWKS is the GET-able public key set for third-party verification.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicJWKS exports the signer's public key as an OKP/Ed25519 key set.
func (s *Signer) PublicJWKS() JWKS {
	return JWKS{
		Keys: []JWK{
			{
				Kty: "OKP",
				Crv: "Ed25519",
				Use: "sig",
				Kid: s.keys.KeyID(),
				X:   base64.RawURLEncoding.EncodeToString(s.keys.Public()),
			},
		},
	}
}
