// Package extract turns raw legal/policy prose into a typed ParsedDocument
// using pattern heuristics. Extraction is best-effort and total: malformed
// or empty input yields an empty document, never an error. Every check is
// context-guarded so that, for example, a bare "$100 voucher" is never
// mistaken for a liability cap.
package extract

import (
	"strings"
	"unicode"

	"github.com/clauselens/clauselens/internal/model"
)

// Extract scans text once against a fixed, ordered battery of pattern
// checks and returns the parsed document plus its flat risk-flag
// projection. hint, when non-empty, overrides product inference.
func Extract(text, hint string) (model.ParsedDocument, model.RiskFlags) {
	b := newBuilder()

	norm := Normalize(text)
	if norm == "" {
		return b.doc, ProjectFlags(&b.doc)
	}

	if hint != "" {
		b.doc.Product = strings.TrimSpace(hint)
	}

	// Ordered battery. Each check may populate top-level fields and/or
	// append or merge a Section; section order is detection order.
	for _, check := range checks {
		check(norm, b)
	}

	return b.doc, ProjectFlags(&b.doc)
}

// Normalize collapses whitespace runs (including non-breaking spaces) to
// single spaces and strips control characters.
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	lastSpace := true // trims leading whitespace
	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || r == '\u200b':
			if !lastSpace {
				sb.WriteByte(' ')
				lastSpace = true
			}
		case r < 0x20 || r == 0x7f:
			// control characters dropped
		default:
			sb.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimRight(sb.String(), " ")
}

// builder accumulates sections keyed for merge-on-redetection.
type builder struct {
	doc   model.ParsedDocument
	index map[model.SectionKey]int
}

func newBuilder() *builder {
	return &builder{index: make(map[model.SectionKey]int)}
}

// section returns the existing section for key or appends a new one.
func (b *builder) section(key model.SectionKey, title string) *model.Section {
	if i, ok := b.index[key]; ok {
		return &b.doc.Sections[i]
	}
	b.doc.Sections = append(b.doc.Sections, model.Section{Key: key, Title: title})
	b.index[key] = len(b.doc.Sections) - 1
	return &b.doc.Sections[len(b.doc.Sections)-1]
}

// bullet appends a summary line, skipping duplicates.
func (b *builder) bullet(sec *model.Section, line string) {
	for _, existing := range sec.Bullets {
		if existing == line {
			return
		}
	}
	sec.Bullets = append(sec.Bullets, line)
}

// fact records a value under the section. First qualifying match wins:
// later duplicate mentions under the same key are ignored.
func (b *builder) fact(sec *model.Section, name string, value any) {
	if sec.Facts == nil {
		sec.Facts = make(map[string]any)
	}
	if _, exists := sec.Facts[name]; exists {
		return
	}
	sec.Facts[name] = value
}

// ProjectFlags computes RiskFlags from Sections. Sections are the single
// source of truth; a missing section leaves its flags at false/nil.
func ProjectFlags(doc *model.ParsedDocument) model.RiskFlags {
	var flags model.RiskFlags

	if sec := doc.SectionByKey(model.SectionDisputes); sec != nil {
		flags.Arbitration = factBool(sec, "arbitration")
		flags.ClassActionWaiver = factBool(sec, "classActionWaiver")
		if days, ok := factInt(sec, "optOutDays"); ok {
			flags.OptOutDays = &days
		}
	}
	if sec := doc.SectionByKey(model.SectionLiability); sec != nil {
		if amount, ok := factFloat(sec, "liabilityCap"); ok {
			flags.LiabilityCap = &amount
		}
	}
	if sec := doc.SectionByKey(model.SectionTermination); sec != nil {
		flags.TerminationAtWill = factBool(sec, "terminationAtWill")
	}
	if sec := doc.SectionByKey(model.SectionWallet); sec != nil {
		flags.WalletSelfCustody = factBool(sec, "walletSelfCustody")
		flags.IrreversibleTxs = factBool(sec, "irreversibleTxs")
	}
	if sec := doc.SectionByKey(model.SectionRisks); sec != nil {
		flags.BridgingL2Risks = factBool(sec, "bridgingL2Risks")
	}

	return flags
}

func factBool(sec *model.Section, name string) bool {
	v, ok := sec.Facts[name].(bool)
	return ok && v
}

func factInt(sec *model.Section, name string) (int, bool) {
	v, ok := sec.Facts[name].(int)
	return v, ok
}

func factFloat(sec *model.Section, name string) (float64, bool) {
	switch v := sec.Facts[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
