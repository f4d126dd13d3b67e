package extract

import (
	"testing"

	"github.com/clauselens/clauselens/internal/model"
)

func TestExtract_EmptyInput(t *testing.T) {
	doc, flags := Extract("", "")

	if doc.Product != "" || doc.UpdatedAt != "" || len(doc.Jurisdiction) != 0 {
		t.Errorf("expected empty optional fields, got %+v", doc)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("expected no sections, got %d", len(doc.Sections))
	}
	if flags.Arbitration || flags.LiabilityCap != nil || flags.OptOutDays != nil {
		t.Errorf("expected zero flags, got %+v", flags)
	}
}

func TestExtract_VoucherIsNotLiabilityCap(t *testing.T) {
	_, flags := Extract("We offer a $100 voucher to new users.", "")
	if flags.LiabilityCap != nil {
		t.Fatalf("expected nil liability cap for voucher text, got %v", *flags.LiabilityCap)
	}
}

func TestExtract_LiabilityCapGreaterOf(t *testing.T) {
	doc, flags := Extract("Our maximum aggregate liability shall be the greater of $100 or the amount you paid.", "")

	if flags.LiabilityCap == nil || *flags.LiabilityCap != 100 {
		t.Fatalf("expected liability cap 100, got %v", flags.LiabilityCap)
	}
	sec := doc.SectionByKey(model.SectionLiability)
	if sec == nil {
		t.Fatal("expected liability section")
	}
	if sec.Facts["liabilityCap"] != 100.0 {
		t.Errorf("expected liabilityCap fact 100, got %v", sec.Facts["liabilityCap"])
	}
}

func TestExtract_LiabilityCapFirstMatchWins(t *testing.T) {
	text := "Our aggregate liability is limited to $50. In no event shall liability exceed $900."
	_, flags := Extract(text, "")

	if flags.LiabilityCap == nil || *flags.LiabilityCap != 50 {
		t.Fatalf("expected first qualifying cap 50, got %v", flags.LiabilityCap)
	}
}

func TestExtract_ArbitrationAndOptOut(t *testing.T) {
	text := "All disputes are resolved through binding individual arbitration with JAMS. " +
		"You may opt out within 30 days of accepting these terms."
	doc, flags := Extract(text, "")

	if !flags.Arbitration {
		t.Error("expected arbitration flag")
	}
	if flags.OptOutDays == nil || *flags.OptOutDays != 30 {
		t.Fatalf("expected optOutDays 30, got %v", flags.OptOutDays)
	}

	sec := doc.SectionByKey(model.SectionDisputes)
	if sec == nil {
		t.Fatal("expected disputes section")
	}
	if sec.Facts["optOutDays"] != 30 {
		t.Errorf("expected optOutDays fact 30, got %v", sec.Facts["optOutDays"])
	}
	if sec.Facts["arbitrationProvider"] != "JAMS" {
		t.Errorf("expected provider JAMS, got %v", sec.Facts["arbitrationProvider"])
	}

	// Arbitration alone must not imply a class-action waiver.
	if flags.ClassActionWaiver {
		t.Error("classActionWaiver set without an explicit waiver phrase")
	}
}

func TestExtract_ClassActionWaiverNeedsWaiverVerb(t *testing.T) {
	_, flags := Extract("Any disputes between the parties will be handled promptly.", "")
	if flags.ClassActionWaiver {
		t.Error("generic disputes language must not set classActionWaiver")
	}

	_, flags = Extract("You waive any right to participate in a class action or representative proceeding.", "")
	if !flags.ClassActionWaiver {
		t.Error("explicit waiver phrase should set classActionWaiver")
	}
}

func TestExtract_SelfCustodyNeedsExplicitPattern(t *testing.T) {
	_, flags := Extract("You can connect a wallet to the application.", "")
	if flags.WalletSelfCustody {
		t.Error("mere mention of wallet must not set walletSelfCustody")
	}

	_, flags = Extract("The company does not have custody of your wallet or private keys.", "")
	if !flags.WalletSelfCustody {
		t.Error("explicit no-custody phrase should set walletSelfCustody")
	}
}

func TestExtract_GoverningLawCompound(t *testing.T) {
	doc, _ := Extract("This agreement is governed by the laws of England and Wales.", "")
	if len(doc.Jurisdiction) != 1 || doc.Jurisdiction[0] != "England and Wales" {
		t.Fatalf("expected single compound jurisdiction, got %v", doc.Jurisdiction)
	}

	doc, _ = Extract("These terms are governed by the laws of Delaware and New York, without regard to conflict of law rules.", "")
	if len(doc.Jurisdiction) != 2 || doc.Jurisdiction[0] != "Delaware" || doc.Jurisdiction[1] != "New York" {
		t.Fatalf("expected [Delaware New York], got %v", doc.Jurisdiction)
	}
}

func TestExtract_SectionsMergeByKey(t *testing.T) {
	text := "Disputes are settled by arbitration under the rules of JAMS. " +
		"You waive participation in any class action. You may opt out within 14 days."
	doc, _ := Extract(text, "")

	count := 0
	for _, sec := range doc.Sections {
		if sec.Key == model.SectionDisputes {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one disputes section, got %d", count)
	}
}

func TestExtract_NetworkSpecifics(t *testing.T) {
	text := "The network is built on the OP Stack. The sequencer is operated by Example Labs, " +
		"and withdrawals are subject to a challenge period of 7 days."
	doc, _ := Extract(text, "")

	sec := doc.SectionByKey(model.SectionNetworkSpecifics)
	if sec == nil {
		t.Fatal("expected network-specifics section")
	}
	if sec.Facts["stack"] != "OP Stack" {
		t.Errorf("expected stack fact, got %v", sec.Facts["stack"])
	}
	if sec.Facts["operator"] != "Example Labs" {
		t.Errorf("expected operator fact, got %v", sec.Facts["operator"])
	}
	if sec.Facts["disputePeriodDays"] != 7 {
		t.Errorf("expected dispute period 7, got %v", sec.Facts["disputePeriodDays"])
	}
}

func TestExtract_HintOverridesInference(t *testing.T) {
	doc, _ := Extract("Welcome to Acme. These are the terms.", "ExampleChain")
	if doc.Product != "ExampleChain" {
		t.Errorf("expected hint to win, got %q", doc.Product)
	}

	doc, _ = Extract("Welcome to Acme. These are the terms.", "")
	if doc.Product != "Acme" {
		t.Errorf("expected inferred product Acme, got %q", doc.Product)
	}
}

func TestExtract_EndToEndScenario(t *testing.T) {
	text := "Last updated July 29, 2025. You must be at least 18 years of age to use the service. " +
		"The company does not have custody of your wallet or keys. " +
		"Maximum aggregate liability is $100. " +
		"Disputes are resolved by binding individual arbitration with JAMS. " +
		"You may opt out within 30 days. " +
		"These terms are governed by the laws of Delaware."
	doc, flags := Extract(text, "")

	if doc.UpdatedAt != "2025-07-29" {
		t.Errorf("expected updated_at 2025-07-29, got %q", doc.UpdatedAt)
	}
	if len(doc.Jurisdiction) != 1 || doc.Jurisdiction[0] != "Delaware" {
		t.Errorf("expected jurisdiction [Delaware], got %v", doc.Jurisdiction)
	}

	for _, key := range []model.SectionKey{
		model.SectionEligibility, model.SectionWallet, model.SectionLiability,
		model.SectionDisputes, model.SectionGoverningLaw,
	} {
		if doc.SectionByKey(key) == nil {
			t.Errorf("expected section %q", key)
		}
	}

	if !flags.Arbitration {
		t.Error("expected arbitration flag")
	}
	if flags.LiabilityCap == nil || *flags.LiabilityCap != 100 {
		t.Errorf("expected liabilityCap 100, got %v", flags.LiabilityCap)
	}
	if !flags.WalletSelfCustody {
		t.Error("expected walletSelfCustody flag")
	}
	if flags.OptOutDays == nil || *flags.OptOutDays != 30 {
		t.Errorf("expected optOutDays 30, got %v", flags.OptOutDays)
	}
}

func TestNormalize(t *testing.T) {
	in := "Hello  world.\n\nNext\tline.\x00"
	got := Normalize(in)
	want := "Hello world. Next line."
	if got != want {
		t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
	}
}

func TestExtract_NeverErrorsOnGarbage(t *testing.T) {
	inputs := []string{
		"\x00\x01\x02",
		"$$$$ 100 100 100 liability liability",
		"governed by the laws of",
		"opt out within days",
		"at least years of age",
	}
	for _, in := range inputs {
		doc, _ := Extract(in, "")
		_ = doc // must not panic; absence of patterns is a normal outcome
	}
}
