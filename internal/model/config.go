package model

import "time"

// Config holds the complete runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Cache    CacheConfig    `yaml:"cache"`
	LLM      LLMConfig      `yaml:"llm"`
	Classify ClassifyConfig `yaml:"classify"`
	Signing  SigningConfig  `yaml:"signing"`
	Server   ServerConfig   `yaml:"server"`
	Output   OutputConfig   `yaml:"output"`
}

// HTTPConfig controls the page fetcher.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	RateBurst     int           `yaml:"rate_burst"`
}

// CacheConfig controls the short-TTL assessment cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// LLMConfig configures the classification model provider.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama, "" = disabled
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // from environment only, never from file
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds, per classification call
	MaxTokens int    `yaml:"max_tokens"`
}

// ClassifyConfig controls chunking and the classification fan-out.
type ClassifyConfig struct {
	MaxChunkLen int `yaml:"max_chunk_len"` // characters per chunk
	Workers     int `yaml:"workers"`       // concurrent chunk classifications
}

// SigningConfig controls the attestation signer.
type SigningConfig struct {
	KeyFile string        `yaml:"key_file"` // hex ed25519 seed; generated if empty
	TTL     time.Duration `yaml:"ttl"`      // assessment validity window
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "ClauseLens/0.1 (+https://github.com/clauselens/clauselens)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			RatePerSecond: 2,
			RateBurst:     4,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1500,
		},
		Classify: ClassifyConfig{
			MaxChunkLen: 4000,
			Workers:     4,
		},
		Signing: SigningConfig{
			TTL: 5 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
