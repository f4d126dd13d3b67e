package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/model"
)

// A check inspects the normalized text and may populate top-level fields
// and/or append or merge a Section.
type check func(norm string, b *builder)

// checks is the fixed, ordered battery run by Extract.
var checks = []check{
	checkProduct,
	checkUpdatedAt,
	checkEligibility,
	checkWalletCustody,
	checkIrreversibleTxs,
	checkTokens,
	checkRisks,
	checkBridging,
	checkArbitration,
	checkArbitrationProvider,
	checkOptOut,
	checkClassActionWaiver,
	checkLiabilityCap,
	checkTermination,
	checkModifications,
	checkPrivacy,
	checkIP,
	checkDMCA,
	checkThirdParty,
	checkGoverningLaw,
	checkJurisdictionNotice,
	checkNetworkSpecifics,
}

var (
	reProductQuoted  = regexp.MustCompile(`\(\s*(?:the\s+)?[“"']([A-Z][A-Za-z0-9 .&-]{1,40}?)[”"']\s*\)`)
	reProductWelcome = regexp.MustCompile(`(?i)\bwelcome to ([A-Z][A-Za-z0-9.&-]{2,40})`)

	reUpdatedAt = regexp.MustCompile(`(?i)\blast\s+(?:updated|revised|modified)(?:\s+on)?[:\s]\s*([A-Za-z]+ \d{1,2},? \d{4}|\d{1,2} [A-Za-z]+ \d{4}|\d{4}-\d{2}-\d{2})`)

	reMinAge = regexp.MustCompile(`(?i)\bat least (\d{1,2}) years of age\b`)

	reSelfCustody   = regexp.MustCompile(`(?i)\b(?:does|do|will) not (?:have|take) custody[^.!?]{0,120}?(?:wallets?|keys?|funds|assets)`)
	reNonCustodial  = regexp.MustCompile(`(?i)\bnon-custodial wallet`)
	reIrreversible  = regexp.MustCompile(`(?i)(?:transactions?[^.!?]{0,80}?irreversible|irreversible[^.!?]{0,80}?transactions?|cannot be (?:reversed|undone|recovered))`)
	reTokenNoValue  = regexp.MustCompile(`(?i)\btokens?[^.!?]{0,120}?(?:no (?:monetary |cash )?value|not (?:an? )?investment|not securities|not (?:a )?securit)`)
	reLossRisk      = regexp.MustCompile(`(?i)(?:risk of (?:total |partial )?loss|you (?:may|could|can) lose[^.!?]{0,60}?(?:all|some|funds|value|assets)|highly volatile|significant risk)`)
	reBridgingRisks = regexp.MustCompile(`(?i)(?:bridg\w+[^.!?]{0,120}?(?:layer[ -]?(?:2|two)|\bL2\b|rollups?)|(?:layer[ -]?(?:2|two)|\bL2\b|rollups?)[^.!?]{0,120}?bridg\w+)`)

	reArbitration      = regexp.MustCompile(`(?i)\barbitrat(?:ion|e|or)\b`)
	reArbProvider      = regexp.MustCompile(`(?i)\barbitration[^.!?]{0,120}?\b(JAMS|AAA|American Arbitration Association|ICC|LCIA|CPR)\b`)
	reArbProviderRules = regexp.MustCompile(`(?i)\brules of (?:the )?(JAMS|AAA|American Arbitration Association|ICC|LCIA|CPR)\b`)
	reOptOut           = regexp.MustCompile(`(?i)\bopt(?:ing)?[ -]out\b[^.!?]{0,100}?(\d{1,3}) days|\bopt out\b[^.!?]{0,100}?(\d{1,3}) days`)
	reClassWaiver      = regexp.MustCompile(`(?i)(?:waiv\w+[^.!?]{0,140}?(?:class[ -]action|representative (?:proceeding|action))|(?:class[ -]action|representative (?:proceeding|action))[^.!?]{0,140}?waiv\w+)`)

	reCapAfterTerm  = regexp.MustCompile(`(?i)\b(?:liab\w+|aggregate|maximum)\b[^.!?]{0,140}?\$\s?([\d,]+(?:\.\d+)?)`)
	reCapBeforeTerm = regexp.MustCompile(`(?i)\$\s?([\d,]+(?:\.\d+)?)[^.!?]{0,140}?\bliab\w+`)

	reTermAtWill = regexp.MustCompile(`(?i)\b(?:terminate|suspend)\b[^.!?]{0,120}?(?:at (?:any time|its sole discretion|our sole discretion)|without (?:prior )?(?:notice|cause))`)

	reModifications = regexp.MustCompile(`(?i)(?:we (?:may|reserve the right to) (?:modify|change|amend|update|revise)[^.!?]{0,80}?(?:terms|agreement|policy)|changes to (?:these|the) terms)`)
	rePrivacy       = regexp.MustCompile(`(?i)(?:privacy policy|personal (?:data|information))`)
	rePrivacyShare  = regexp.MustCompile(`(?i)we (?:collect|share|sell|process|disclose)[^.!?]{0,100}?(?:personal )?(?:data|information)`)
	reIPRights      = regexp.MustCompile(`(?i)(?:intellectual property|all right, title,? and interest|all rights, title,? and interest)`)
	reDMCA          = regexp.MustCompile(`(?i)(?:\bDMCA\b|Digital Millennium Copyright Act)`)
	reThirdParty    = regexp.MustCompile(`(?i)third[ -]party (?:services?|links?|websites?|content|providers?)`)

	reGoverningLaw = regexp.MustCompile(`(?i)\bgoverned by (?:and construed in accordance with )?the laws of (?:the )?(?:state of |commonwealth of )?([^.;]{2,100})`)
	reJurisNotice  = regexp.MustCompile(`(?i)(?:not (?:available|offered|intended) (?:to|for) (?:residents|persons|users)|residents of [^.!?]{0,80}?(?:may not|are not permitted|are prohibited))`)

	reNetworkStack   = regexp.MustCompile(`(?i)\bbuilt on (?:the )?(OP Stack|Arbitrum (?:Nitro|Orbit)|Optimism|Polygon CDK|ZK Stack)`)
	reNetworkOp      = regexp.MustCompile(`(?i)\b(?:sequencer|rollup|network) (?:is )?operated by ([A-Z][A-Za-z0-9 .&-]{1,40}?)(?:[,.;]| and\b| which\b)`)
	reDisputePeriod  = regexp.MustCompile(`(?i)\b(?:challenge|dispute|withdrawal) period of (\d{1,3}) days`)
	reGreaterOfNoise = regexp.MustCompile(`(?i)\bgreater of \$`)
)

func checkProduct(norm string, b *builder) {
	if b.doc.Product != "" {
		return // explicit hint wins
	}
	if m := reProductQuoted.FindStringSubmatch(norm); m != nil {
		b.doc.Product = strings.TrimSpace(m[1])
		return
	}
	if m := reProductWelcome.FindStringSubmatch(norm); m != nil {
		b.doc.Product = strings.TrimRight(strings.TrimSpace(m[1]), ".,")
	}
}

func checkUpdatedAt(norm string, b *builder) {
	m := reUpdatedAt.FindStringSubmatch(norm)
	if m == nil {
		return
	}
	if date, ok := parseDate(m[1]); ok {
		b.doc.UpdatedAt = date
	}
}

// parseDate normalizes a textual date to an ISO calendar date. No timezone
// arithmetic: July 29, 2025 parses to exactly 2025-07-29.
func parseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"January 2, 2006", "January 2 2006", "2 January 2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func checkEligibility(norm string, b *builder) {
	m := reMinAge.FindStringSubmatch(norm)
	if m == nil {
		return
	}
	age, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	sec := b.section(model.SectionEligibility, "Eligibility")
	b.fact(sec, "minAge", age)
	b.bullet(sec, fmt.Sprintf("You must be at least %d years old to use the service.", age))
}

func checkWalletCustody(norm string, b *builder) {
	// Requires an explicit no-custody statement near wallet/key language;
	// the mere word "wallet" must not set the flag.
	if !reSelfCustody.MatchString(norm) && !reNonCustodial.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionWallet, "Wallet & Custody")
	b.fact(sec, "walletSelfCustody", true)
	b.bullet(sec, "The service does not hold your wallet or keys; you are responsible for them.")
}

func checkIrreversibleTxs(norm string, b *builder) {
	if !reIrreversible.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionWallet, "Wallet & Custody")
	b.fact(sec, "irreversibleTxs", true)
	b.bullet(sec, "Transactions are irreversible once submitted.")
}

func checkTokens(norm string, b *builder) {
	if !reTokenNoValue.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionTokens, "Tokens")
	b.bullet(sec, "Tokens carry no promise of value and are not presented as investments.")
}

func checkRisks(norm string, b *builder) {
	if !reLossRisk.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionRisks, "Risks")
	b.bullet(sec, "You can lose some or all of what you put in.")
}

func checkBridging(norm string, b *builder) {
	if !reBridgingRisks.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionRisks, "Risks")
	b.fact(sec, "bridgingL2Risks", true)
	b.bullet(sec, "Bridging to or from layer-2 networks carries extra risk.")
}

func checkArbitration(norm string, b *builder) {
	if !reArbitration.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionDisputes, "Disputes & Arbitration")
	b.fact(sec, "arbitration", true)
	b.bullet(sec, "Disputes go to binding arbitration, not court.")
}

func checkArbitrationProvider(norm string, b *builder) {
	var provider string
	if m := reArbProvider.FindStringSubmatch(norm); m != nil {
		provider = m[1]
	} else if m := reArbProviderRules.FindStringSubmatch(norm); m != nil {
		provider = m[1]
	}
	if provider == "" {
		return
	}
	sec := b.section(model.SectionDisputes, "Disputes & Arbitration")
	b.fact(sec, "arbitrationProvider", provider)
}

func checkOptOut(norm string, b *builder) {
	m := reOptOut.FindStringSubmatch(norm)
	if m == nil {
		return
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	sec := b.section(model.SectionDisputes, "Disputes & Arbitration")
	b.fact(sec, "optOutDays", days)
	b.bullet(sec, fmt.Sprintf("You can opt out of arbitration within %d days.", days))
}

func checkClassActionWaiver(norm string, b *builder) {
	// Requires an explicit waiver verb near class-action language; generic
	// "disputes" wording never sets this flag.
	if !reClassWaiver.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionDisputes, "Disputes & Arbitration")
	b.fact(sec, "classActionWaiver", true)
	b.bullet(sec, "You give up the right to bring or join a class action.")
}

func checkLiabilityCap(norm string, b *builder) {
	// A dollar figure only counts when it co-occurs with a liability term
	// within a bounded window, in either direction. First match wins.
	amount, ok := firstCapMatch(norm)
	if !ok {
		return
	}
	sec := b.section(model.SectionLiability, "Liability")
	b.fact(sec, "liabilityCap", amount)
	if reGreaterOfNoise.MatchString(norm) {
		b.bullet(sec, fmt.Sprintf("Liability is capped at the greater of $%s or amounts you paid.", formatAmount(amount)))
	} else {
		b.bullet(sec, fmt.Sprintf("Liability is capped at $%s.", formatAmount(amount)))
	}
}

func firstCapMatch(norm string) (float64, bool) {
	type hit struct {
		pos int
		raw string
	}
	var best *hit
	if loc := reCapAfterTerm.FindStringSubmatchIndex(norm); loc != nil {
		best = &hit{pos: loc[0], raw: norm[loc[2]:loc[3]]}
	}
	if loc := reCapBeforeTerm.FindStringSubmatchIndex(norm); loc != nil {
		if best == nil || loc[0] < best.pos {
			best = &hit{pos: loc[0], raw: norm[loc[2]:loc[3]]}
		}
	}
	if best == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(best.raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func checkTermination(norm string, b *builder) {
	if !reTermAtWill.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionTermination, "Termination")
	b.fact(sec, "terminationAtWill", true)
	b.bullet(sec, "Your account can be terminated or suspended at the provider's discretion.")
}

func checkModifications(norm string, b *builder) {
	if !reModifications.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionModifications, "Changes to Terms")
	b.bullet(sec, "The terms can change; continued use means acceptance.")
}

func checkPrivacy(norm string, b *builder) {
	if !rePrivacy.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionPrivacy, "Privacy")
	if rePrivacyShare.MatchString(norm) {
		b.bullet(sec, "Personal data is collected and may be shared; see the privacy policy.")
	} else {
		b.bullet(sec, "A privacy policy applies to your personal data.")
	}
}

func checkIP(norm string, b *builder) {
	if !reIPRights.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionIP, "Intellectual Property")
	b.bullet(sec, "The provider keeps ownership of its content and marks.")
}

func checkDMCA(norm string, b *builder) {
	if !reDMCA.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionDMCA, "DMCA")
	b.bullet(sec, "Copyright complaints follow the DMCA takedown process.")
}

func checkThirdParty(norm string, b *builder) {
	if !reThirdParty.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionThirdParty, "Third-Party Services")
	b.bullet(sec, "Third-party services and links are outside the provider's control.")
}

func checkGoverningLaw(norm string, b *builder) {
	m := reGoverningLaw.FindStringSubmatch(norm)
	if m == nil {
		return
	}
	regions := splitJurisdictions(m[1])
	if len(regions) == 0 {
		return
	}
	for _, r := range regions {
		if !containsFold(b.doc.Jurisdiction, r) {
			b.doc.Jurisdiction = append(b.doc.Jurisdiction, r)
		}
	}
	sec := b.section(model.SectionGoverningLaw, "Governing Law")
	b.fact(sec, "region", regions[0])
	b.bullet(sec, fmt.Sprintf("These terms are governed by the laws of %s.", strings.Join(regions, ", ")))
}

// compoundJurisdictions are multi-word regions that read like conjunctions
// but name a single legal system.
var compoundJurisdictions = map[string]bool{
	"england and wales":      true,
	"trinidad and tobago":    true,
	"antigua and barbuda":    true,
	"bosnia and herzegovina": true,
	"saint kitts and nevis":  true,
}

// splitJurisdictions turns the governing-law capture into distinct region
// names. "England and Wales" stays one entry; trailing qualifier clauses
// ("without regard to...") are cut.
func splitJurisdictions(capture string) []string {
	s := strings.TrimSpace(capture)
	for _, cut := range []string{" without regard", " excluding", " applicable to", " and the courts", " and you "} {
		if i := strings.Index(strings.ToLower(s), cut); i >= 0 {
			s = s[:i]
		}
	}
	s = strings.TrimRight(strings.TrimSpace(s), ".,;")
	if s == "" {
		return nil
	}
	if compoundJurisdictions[strings.ToLower(s)] {
		return []string{s}
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if compoundJurisdictions[strings.ToLower(part)] {
			out = append(out, part)
			continue
		}
		for _, sub := range strings.Split(part, " and ") {
			sub = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sub), "and "))
			if sub != "" && !containsFold(out, sub) {
				out = append(out, sub)
			}
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func checkJurisdictionNotice(norm string, b *builder) {
	if !reJurisNotice.MatchString(norm) {
		return
	}
	sec := b.section(model.SectionJurisdictionNote, "Jurisdiction Notice")
	b.bullet(sec, "The service is restricted in some regions.")
}

func checkNetworkSpecifics(norm string, b *builder) {
	// Network/rollup facts live only under the dedicated section key.
	var sec *model.Section
	ensure := func() *model.Section {
		if sec == nil {
			sec = b.section(model.SectionNetworkSpecifics, "Network Specifics")
		}
		return sec
	}

	if m := reNetworkStack.FindStringSubmatch(norm); m != nil {
		b.fact(ensure(), "stack", m[1])
	}
	if m := reNetworkOp.FindStringSubmatch(norm); m != nil {
		b.fact(ensure(), "operator", strings.TrimSpace(m[1]))
	}
	if m := reDisputePeriod.FindStringSubmatch(norm); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			b.fact(ensure(), "disputePeriodDays", days)
		}
	}
}
