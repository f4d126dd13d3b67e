// Package classify turns document text into clause-level risk judgments:
// it chunks the text, sends each chunk to the classification model,
// validates the untrusted output against the closed taxonomy, and
// aggregates the results into a page-level verdict.
package classify

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/clauselens/clauselens/internal/model"
)

// rawClause mirrors the model's JSON contract before validation.
type rawClause struct {
	Tag          string `json:"tag"`
	Risk         string `json:"risk"`
	Rationale    string `json:"rationale"`
	PlainEnglish string `json:"plain_english"`
	TextExcerpt  string `json:"text_excerpt"`
}

type rawEnvelope struct {
	Clauses []rawClause `json:"clauses"`
}

// ParseClauses is the trust boundary for model output. It is total: any
// malformed input yields a (possibly empty) clause list, never an error.
// Unknown tags coerce to "other"; unknown risks coerce to "Y" — unclear is
// never silently promoted to green. Clauses without plain-language text are
// dropped, and excerpts are truncated to the model limit.
func ParseClauses(raw string) []model.Clause {
	raw = stripFences(raw)
	if raw == "" {
		return nil
	}

	var items []rawClause
	var env rawEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err == nil && env.Clauses != nil {
		items = env.Clauses
	} else if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}

	var out []model.Clause
	for _, item := range items {
		plain := strings.TrimSpace(item.PlainEnglish)
		if plain == "" {
			continue
		}

		tag := model.ClauseTag(strings.ToLower(strings.TrimSpace(item.Tag)))
		if !model.ValidTag(tag) {
			tag = model.TagOther
		}

		risk := model.RiskTier(strings.ToUpper(strings.TrimSpace(item.Risk)))
		if !model.ValidRisk(risk) {
			risk = model.RiskYellow
		}

		// The limit is characters, not bytes: multibyte punctuation is
		// common in legal text and must not be split mid-rune.
		excerpt := truncateRunes(strings.TrimSpace(item.TextExcerpt), model.MaxExcerptLen)

		out = append(out, model.Clause{
			Tag:          tag,
			Risk:         risk,
			Rationale:    strings.TrimSpace(item.Rationale),
			PlainEnglish: plain,
			TextExcerpt:  excerpt,
		})
	}

	return out
}

// truncateRunes caps s at n characters on a rune boundary.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// stripFences removes markdown code fences some models wrap around JSON
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
