package classify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/clauselens/clauselens/internal/model"
)

func TestParseClauses_ValidEnvelope(t *testing.T) {
	raw := `{"clauses":[{"tag":"arbitration","risk":"R","rationale":"mandatory","plain_english":"You must arbitrate.","text_excerpt":"binding arbitration"}]}`
	clauses := ParseClauses(raw)

	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(clauses))
	}
	c := clauses[0]
	if c.Tag != model.TagArbitration || c.Risk != model.RiskRed {
		t.Errorf("unexpected clause: %+v", c)
	}
}

func TestParseClauses_TopLevelArray(t *testing.T) {
	raw := `[{"tag":"fees","risk":"Y","plain_english":"Fees can change."}]`
	clauses := ParseClauses(raw)
	if len(clauses) != 1 || clauses[0].Tag != model.TagFees {
		t.Fatalf("expected fees clause, got %+v", clauses)
	}
}

func TestParseClauses_UnknownTagCoercesToOther(t *testing.T) {
	raw := `{"clauses":[{"tag":"blockchain_magic","risk":"G","plain_english":"Something."}]}`
	clauses := ParseClauses(raw)
	if len(clauses) != 1 || clauses[0].Tag != model.TagOther {
		t.Fatalf("expected coercion to other, got %+v", clauses)
	}
}

func TestParseClauses_UnknownRiskCoercesToYellow(t *testing.T) {
	// Unclear risk must never be silently promoted to green.
	raw := `{"clauses":[{"tag":"fees","risk":"PURPLE","plain_english":"Something."}]}`
	clauses := ParseClauses(raw)
	if len(clauses) != 1 || clauses[0].Risk != model.RiskYellow {
		t.Fatalf("expected coercion to Y, got %+v", clauses)
	}
}

func TestParseClauses_DropsEmptyPlainEnglish(t *testing.T) {
	raw := `{"clauses":[
		{"tag":"fees","risk":"Y","plain_english":"   "},
		{"tag":"liability","risk":"R","plain_english":"Liability is capped."}
	]}`
	clauses := ParseClauses(raw)
	if len(clauses) != 1 || clauses[0].Tag != model.TagLiability {
		t.Fatalf("expected only the liability clause, got %+v", clauses)
	}
}

func TestParseClauses_TruncatesExcerpt(t *testing.T) {
	long := strings.Repeat("x", 500)
	raw := `{"clauses":[{"tag":"other","risk":"G","plain_english":"ok","text_excerpt":"` + long + `"}]}`
	clauses := ParseClauses(raw)
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(clauses))
	}
	if len(clauses[0].TextExcerpt) != model.MaxExcerptLen {
		t.Errorf("expected excerpt truncated to %d, got %d", model.MaxExcerptLen, len(clauses[0].TextExcerpt))
	}
}

func TestParseClauses_ExcerptLimitIsCharacters(t *testing.T) {
	// Legal text is full of multibyte punctuation; the limit counts
	// characters and must never split a rune mid-sequence.
	long := strings.Repeat("§", 300)
	raw := `{"clauses":[{"tag":"other","risk":"G","plain_english":"ok","text_excerpt":"` + long + `"}]}`
	clauses := ParseClauses(raw)
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(clauses))
	}
	excerpt := clauses[0].TextExcerpt
	if got := utf8.RuneCountInString(excerpt); got != model.MaxExcerptLen {
		t.Errorf("excerpt truncated to %d characters, want %d", got, model.MaxExcerptLen)
	}
	if !utf8.ValidString(excerpt) {
		t.Error("truncation produced invalid UTF-8")
	}
}

func TestParseClauses_TotalOnGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"not json at all",
		`{"clauses": "wrong shape"}`,
		`{"clauses": [42, "string"]}`,
		`{"other_key": []}`,
	} {
		if got := ParseClauses(raw); len(got) != 0 {
			t.Errorf("ParseClauses(%q) = %+v, expected empty", raw, got)
		}
	}
}

func TestParseClauses_StripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"clauses\":[{\"tag\":\"cookies\",\"risk\":\"G\",\"plain_english\":\"Cookies are used.\"}]}\n```"
	clauses := ParseClauses(raw)
	if len(clauses) != 1 || clauses[0].Tag != model.TagCookies {
		t.Fatalf("expected fenced JSON to parse, got %+v", clauses)
	}
}

func TestParseClauses_CaseNormalization(t *testing.T) {
	raw := `{"clauses":[{"tag":"Arbitration","risk":"r","plain_english":"Arbitrate."}]}`
	clauses := ParseClauses(raw)
	if len(clauses) != 1 || clauses[0].Tag != model.TagArbitration || clauses[0].Risk != model.RiskRed {
		t.Fatalf("expected case-insensitive tag/risk handling, got %+v", clauses)
	}
}
