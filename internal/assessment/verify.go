package assessment

import (
	"crypto/ed25519"
	"time"

	"github.com/clauselens/clauselens/internal/attest"
	"github.com/clauselens/clauselens/internal/model"
)

// Verify checks a presented assessment response against the given public
// key. Expiry is checked before the signature so consumers get the most
// actionable reason first; every failure is reported in the result, never
// as an error.
func Verify(pub ed25519.PublicKey, resp *model.AssessmentResponse, now time.Time) model.VerifyResult {
	result := model.VerifyResult{
		AssessmentID: resp.Assessment.AssessmentID,
		ExpiresAt:    resp.Assessment.ExpiresAt,
	}

	if attest.Expired(resp.Assessment.ExpiresAt, now) {
		result.Reason = "assessment expired or expiry timestamp malformed"
		return result
	}
	// The envelope plus signature is the minimal verifiable unit; an absent
	// algorithm field means the default scheme, not an unsupported one.
	if resp.Algorithm != "" && resp.Algorithm != attest.Algorithm {
		result.Reason = "unsupported signature algorithm: " + resp.Algorithm
		return result
	}
	if !attest.VerifyWithKey(pub, resp.Assessment, resp.Signature) {
		result.Reason = "signature does not match assessment payload"
		return result
	}

	result.Valid = true
	return result
}
