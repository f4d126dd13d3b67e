package model

// ClauseTag categorizes a classified clause. The taxonomy is closed: any
// value outside this set is coerced to TagOther at the validation boundary.
type ClauseTag string

const (
	TagDataUse      ClauseTag = "data_use"
	TagDataSharing  ClauseTag = "data_sharing"
	TagCookies      ClauseTag = "cookies"
	TagAutoRenewal  ClauseTag = "auto_renewal"
	TagCancellation ClauseTag = "cancellation"
	TagFees         ClauseTag = "fees"
	TagArbitration  ClauseTag = "arbitration"
	TagJurisdiction ClauseTag = "jurisdiction"
	TagWarranty     ClauseTag = "warranty"
	TagLiability    ClauseTag = "liability"
	TagAge          ClauseTag = "age"
	TagIP           ClauseTag = "ip"
	TagThirdParty   ClauseTag = "third_party"
	TagDoNotSell    ClauseTag = "do_not_sell"
	TagOther        ClauseTag = "other"
)

// TaxonomyOrder is the declaration order of the taxonomy. Highlight ordering
// and tie-breaks depend on this order, so it is defined once here.
var TaxonomyOrder = []ClauseTag{
	TagDataUse, TagDataSharing, TagCookies, TagAutoRenewal, TagCancellation,
	TagFees, TagArbitration, TagJurisdiction, TagWarranty, TagLiability,
	TagAge, TagIP, TagThirdParty, TagDoNotSell, TagOther,
}

// ValidTag reports whether the tag belongs to the closed taxonomy.
func ValidTag(t ClauseTag) bool {
	for _, v := range TaxonomyOrder {
		if v == t {
			return true
		}
	}
	return false
}

// RiskTier is the per-clause and overall risk level.
type RiskTier string

const (
	RiskRed    RiskTier = "R" // harmful or onerous
	RiskYellow RiskTier = "Y" // unclear or mixed
	RiskGreen  RiskTier = "G" // benign
)

// ValidRisk reports whether the tier is one of R, Y, G.
func ValidRisk(r RiskTier) bool {
	return r == RiskRed || r == RiskYellow || r == RiskGreen
}

// Points returns the risk score contribution of the tier.
func (r RiskTier) Points() int {
	switch r {
	case RiskRed:
		return 2
	case RiskYellow:
		return 1
	default:
		return 0
	}
}

// WorseThan reports whether r is strictly more severe than other.
func (r RiskTier) WorseThan(other RiskTier) bool {
	return r.Points() > other.Points()
}

// Label returns the human-readable tier name.
func (r RiskTier) Label() string {
	switch r {
	case RiskRed:
		return "red"
	case RiskYellow:
		return "yellow"
	default:
		return "green"
	}
}

// MaxExcerptLen caps the text excerpt carried on a clause.
const MaxExcerptLen = 240

// Clause is one classified statement from the source document.
type Clause struct {
	Tag          ClauseTag `json:"tag"`
	Risk         RiskTier  `json:"risk"`
	Rationale    string    `json:"rationale"`
	PlainEnglish string    `json:"plain_english"`
	TextExcerpt  string    `json:"text_excerpt,omitempty"`
}

// Highlight is one ranked page-level finding.
type Highlight struct {
	Tag     ClauseTag `json:"tag"`
	Risk    RiskTier  `json:"risk"`
	Summary string    `json:"summary"`
}

// PageAssessment is the aggregated page-level verdict.
type PageAssessment struct {
	OverallRisk RiskTier    `json:"overall_risk"`
	RiskScore   int         `json:"risk_score"`
	Highlights  []Highlight `json:"highlights"`
	Clauses     []Clause    `json:"clauses"`
}
