package llm

import (
	"strings"
	"testing"

	"github.com/clauselens/clauselens/internal/model"
)

func TestSystemPrompt_StatesTaxonomyVerbatim(t *testing.T) {
	prompt := SystemPrompt()

	for _, tag := range model.TaxonomyOrder {
		if !strings.Contains(prompt, string(tag)) {
			t.Errorf("system prompt missing taxonomy tag %q", tag)
		}
	}
	for _, tier := range []string{`"R"`, `"Y"`, `"G"`} {
		if !strings.Contains(prompt, tier) {
			t.Errorf("system prompt missing risk tier %s", tier)
		}
	}
	if !strings.Contains(prompt, "STRICT JSON") {
		t.Error("system prompt must demand strict JSON output")
	}
}

func TestUserPrompt_ContainsChunk(t *testing.T) {
	chunk := "We may share your data with partners."
	if got := UserPrompt(chunk); !strings.Contains(got, chunk) {
		t.Errorf("user prompt does not contain chunk: %q", got)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if err != nil || p != nil {
		t.Errorf("empty provider should be (nil, nil), got (%v, %v)", p, err)
	}

	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Error("openai without API key should error")
	}

	p, err = NewProvider(Config{Provider: "ollama"})
	if err != nil || p == nil {
		t.Errorf("ollama needs no key, got (%v, %v)", p, err)
	}

	if _, err := NewProvider(Config{Provider: "bogus"}); err == nil {
		t.Error("unknown provider should error")
	}
}
