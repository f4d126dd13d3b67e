package model

// SectionKey identifies a detected topic in a policy document.
// At most one Section per key exists in a ParsedDocument; re-detection
// merges into the existing Section.
type SectionKey string

const (
	SectionEligibility      SectionKey = "eligibility"
	SectionWallet           SectionKey = "wallet"
	SectionTokens           SectionKey = "tokens"
	SectionRisks            SectionKey = "risks"
	SectionDisputes         SectionKey = "disputes"
	SectionLiability        SectionKey = "liability"
	SectionTermination      SectionKey = "termination"
	SectionModifications    SectionKey = "modifications"
	SectionPrivacy          SectionKey = "privacy"
	SectionIP               SectionKey = "ip"
	SectionDMCA             SectionKey = "dmca"
	SectionThirdParty       SectionKey = "third_party"
	SectionGoverningLaw     SectionKey = "governing_law"
	SectionJurisdictionNote SectionKey = "jurisdiction-notice"
	SectionNetworkSpecifics SectionKey = "network-specifics"
)

// Section is one detected topic with its plain-language summary lines and
// normalized facts. Facts is the single source of truth for anything that
// later appears in RiskFlags.
type Section struct {
	Key     SectionKey     `json:"key"`
	Title   string         `json:"title"`
	Bullets []string       `json:"bullets,omitempty"`
	Body    string         `json:"body,omitempty"`
	Facts   map[string]any `json:"facts,omitempty"`
}

// ParsedDocument is the result of deterministic clause extraction.
// Sections are ordered by detection order, not alphabetically.
type ParsedDocument struct {
	Product      string    `json:"product,omitempty"`
	UpdatedAt    string    `json:"updated_at,omitempty"` // ISO calendar date (2006-01-02)
	Jurisdiction []string  `json:"jurisdiction,omitempty"`
	Sections     []Section `json:"sections"`
}

// SectionByKey returns the section with the given key, or nil.
func (d *ParsedDocument) SectionByKey(key SectionKey) *Section {
	for i := range d.Sections {
		if d.Sections[i].Key == key {
			return &d.Sections[i]
		}
	}
	return nil
}

// RiskFlags is a flat projection computed from Sections. A flag is true or
// non-null only if its owning Section exists and carries the corroborating
// fact; the flags are a derived view, never a second source of truth.
type RiskFlags struct {
	Arbitration       bool     `json:"arbitration"`
	ClassActionWaiver bool     `json:"classActionWaiver"`
	LiabilityCap      *float64 `json:"liabilityCap"`
	TerminationAtWill bool     `json:"terminationAtWill"`
	WalletSelfCustody bool     `json:"walletSelfCustody"`
	IrreversibleTxs   bool     `json:"irreversibleTxs"`
	BridgingL2Risks   bool     `json:"bridgingL2Risks"`
	OptOutDays        *int     `json:"optOutDays"`
}

// ActiveFlags lists the names of the flags that are set, in declaration
// order. Used for the signed envelope's flags array.
func (f RiskFlags) ActiveFlags() []string {
	var out []string
	if f.Arbitration {
		out = append(out, "arbitration")
	}
	if f.ClassActionWaiver {
		out = append(out, "classActionWaiver")
	}
	if f.LiabilityCap != nil {
		out = append(out, "liabilityCap")
	}
	if f.TerminationAtWill {
		out = append(out, "terminationAtWill")
	}
	if f.WalletSelfCustody {
		out = append(out, "walletSelfCustody")
	}
	if f.IrreversibleTxs {
		out = append(out, "irreversibleTxs")
	}
	if f.BridgingL2Risks {
		out = append(out, "bridgingL2Risks")
	}
	if f.OptOutDays != nil {
		out = append(out, "optOutDays")
	}
	return out
}
