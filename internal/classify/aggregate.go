package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/clauselens/clauselens/internal/model"
)

// Risk scoring: red clauses count 2, yellow 1, green 0; the page tier
// follows absolute thresholds. The thresholds are deliberately not
// normalized by clause count — long documents with many yellow clauses can
// reach red on volume alone, and consumers depend on that behavior.
const (
	redThreshold    = 6
	yellowThreshold = 3

	maxHighlights    = 6
	highlightLineLen = 140
)

// Aggregate merges all chunk-level clause judgments into one page-level
// verdict. The input must be in original chunk emission order: the
// "first clause per tag" tie-breaks depend on it.
func Aggregate(clauses []model.Clause) model.PageAssessment {
	score := 0
	for _, c := range clauses {
		score += c.Risk.Points()
	}

	overall := model.RiskGreen
	switch {
	case score >= redThreshold:
		overall = model.RiskRed
	case score >= yellowThreshold:
		overall = model.RiskYellow
	}

	if clauses == nil {
		clauses = []model.Clause{}
	}

	return model.PageAssessment{
		OverallRisk: overall,
		RiskScore:   score,
		Highlights:  selectHighlights(clauses),
		Clauses:     clauses,
	}
}

// selectHighlights emits one highlight per taxonomy tag whose worst
// observed risk is not green, in taxonomy declaration order, capped at 6.
// Worsening is monotonic: yellow overrides green but never red. The summary
// comes from the first clause per tag in discovery order, even when a later
// clause for the tag is more severe — the tier and the text can visibly
// disagree, and that mismatch is preserved on purpose.
func selectHighlights(clauses []model.Clause) []model.Highlight {
	worst := make(map[model.ClauseTag]model.RiskTier)
	first := make(map[model.ClauseTag]string)

	for _, c := range clauses {
		if _, seen := first[c.Tag]; !seen {
			first[c.Tag] = summaryLine(c.PlainEnglish)
		}
		if cur, seen := worst[c.Tag]; !seen || c.Risk.WorseThan(cur) {
			worst[c.Tag] = c.Risk
		}
	}

	highlights := []model.Highlight{}
	for _, tag := range model.TaxonomyOrder {
		risk, seen := worst[tag]
		if !seen || risk == model.RiskGreen {
			continue
		}
		highlights = append(highlights, model.Highlight{
			Tag:     tag,
			Risk:    risk,
			Summary: first[tag],
		})
		if len(highlights) == maxHighlights {
			break
		}
	}

	return highlights
}

// summaryLine takes the first line of text, ellipsized at the limit.
// The limit counts characters, so multibyte text never splits mid-rune.
func summaryLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > highlightLineLen {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:highlightLineLen-1])) + "…"
	}
	return text
}
