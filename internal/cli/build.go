package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/clauselens/clauselens/internal/assessment"
	"github.com/clauselens/clauselens/internal/attest"
	"github.com/clauselens/clauselens/internal/cache"
	"github.com/clauselens/clauselens/internal/classify"
	"github.com/clauselens/clauselens/internal/llm"
	"github.com/clauselens/clauselens/internal/model"
	"github.com/clauselens/clauselens/internal/pipeline"
)

// resolveLLMEnv fills API credentials from the environment for the
// configured provider. Keys never come from the config file.
func resolveLLMEnv(cfg *model.Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

// newBuilder wires the full pipeline from configuration: signing key,
// fetcher, optional classifier and optional cache.
func newBuilder(cfg *model.Config) (*assessment.Builder, error) {
	var kp attest.KeyProvider
	var err error
	if cfg.Signing.KeyFile != "" {
		kp, err = attest.LoadKeyFile(cfg.Signing.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load signing key: %w", err)
		}
	} else {
		kp, err = attest.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	signer := attest.NewSigner(kp)

	opts := []assessment.Option{
		assessment.WithFetcher(pipeline.NewHTTPFetcher(cfg.HTTP)),
	}

	if cfg.LLM.Provider != "" {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, err
		}
		if provider != nil {
			classifier := classify.NewClassifier(provider, cfg.Classify,
				time.Duration(cfg.LLM.Timeout)*time.Second)
			classifier.SetVerbose(cfg.Output.Verbose)
			opts = append(opts, assessment.WithClassifier(classifier))
		}
	}

	if cfg.Cache.Enabled {
		store := cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
		opts = append(opts, assessment.WithCache(store, cfg.Cache.TTL))
	}

	return assessment.NewBuilder(signer, cfg.Signing.TTL, opts...), nil
}
