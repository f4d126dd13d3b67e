package model

// Seller identifies the party whose document was assessed.
type Seller struct {
	Domain string `json:"domain"`
	URL    string `json:"url"`
}

// SignedAssessment is the envelope that gets canonicalized and signed.
// Immutable once signed; verification never mutates it.
type SignedAssessment struct {
	AssessmentID       string         `json:"assessment_id"`
	Timestamp          string         `json:"timestamp"`  // RFC3339 UTC
	ExpiresAt          string         `json:"expires_at"` // RFC3339 UTC, issued_at + TTL
	Seller             Seller         `json:"seller"`
	Flags              []string       `json:"flags"`
	RiskFactorsSummary map[string]int `json:"risk_factors_summary"`
	RiskScore          int            `json:"risk_score"`
	RiskLevel          string         `json:"risk_level"` // red, yellow, green
	OverallRisk        RiskTier       `json:"overall_risk"`
	Highlights         []Highlight    `json:"highlights"`
	Clauses            []Clause       `json:"clauses"`
	Confidence         string         `json:"confidence"` // low, medium, high
}

// AssessmentResponse is the outer wire shape returned to consumers: the
// signed envelope alongside the signature material needed to verify it.
type AssessmentResponse struct {
	Assessment        SignedAssessment `json:"assessment"`
	Document          *ParsedDocument  `json:"document,omitempty"`
	RiskFlags         *RiskFlags       `json:"risk_flags,omitempty"`
	Signature         string           `json:"signature"`
	SignedPayloadHash string           `json:"signed_payload_hash"`
	KeyID             string           `json:"key_id"`
	Algorithm         string           `json:"algorithm"`
}

// VerifyResult is the structured outcome of assessment verification.
// Integrity failures are reported here, never thrown.
type VerifyResult struct {
	Valid        bool   `json:"valid"`
	Reason       string `json:"reason,omitempty"`
	AssessmentID string `json:"assessment_id,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}
