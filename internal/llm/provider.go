// Package llm abstracts the external classification model. Providers return
// the model's raw structured output; validating it is the classify
// package's job, not the provider's.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/clauselens/clauselens/internal/model"
)

// Provider defines the interface for classification model providers.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Classify sends one chunk to the model and returns its raw output
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ClassifyRequest contains the input for one chunk classification.
type ClassifyRequest struct {
	// Chunk is the document segment to classify
	Chunk string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ClassifyResponse contains the model's raw output. Raw is untrusted JSON
// text until it passes the safe-parse boundary.
type ClassifyResponse struct {
	Raw        string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// ConfigFromModel maps the application config onto the provider config.
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}

// SystemPrompt is the fixed classification contract sent with every chunk.
// It states the closed taxonomy and risk enum verbatim and demands strict
// JSON with no commentary.
func SystemPrompt() string {
	tags := make([]string, len(model.TaxonomyOrder))
	for i, t := range model.TaxonomyOrder {
		tags[i] = string(t)
	}

	return fmt.Sprintf(`You classify clauses found in terms-of-service, privacy and refund policies.

For each distinct clause in the text, emit one object with:
- "tag": exactly one of: %s
- "risk": exactly one of: "R" (harmful/onerous), "Y" (unclear/mixed), "G" (benign)
- "rationale": one sentence explaining the risk call
- "plain_english": what the clause means, written for a 9th-grade reading level
- "text_excerpt": a short quote from the source (240 characters max)

Respond with STRICT JSON only, no commentary, no markdown fences:
{"clauses":[{"tag":"...","risk":"...","rationale":"...","plain_english":"...","text_excerpt":"..."}]}

If the text contains no classifiable clauses, respond {"clauses":[]}.
Never assert legal conclusions; describe what the text says.`, strings.Join(tags, ", "))
}

// UserPrompt wraps one chunk for classification.
func UserPrompt(chunk string) string {
	return "Classify the clauses in this policy text:\n\n" + chunk
}
