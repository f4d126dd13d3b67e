package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/assessment"
	"github.com/clauselens/clauselens/internal/model"
)

var (
	outJSON     string
	textFile    string
	productHint string
	scanTimeout time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noRobots    bool
	keyFile     string
	llmProvider string
	llmModel    string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [url]",
	Short: "Assess a policy page or document and sign the result",
	Long: `Scan analyzes one terms-of-service or policy document:
- Fetch the page (or read raw text with --text-file)
- Extract structured facts and risk flags with deterministic patterns
- Optionally classify individual clauses with a language model
- Aggregate clause risk into an overall tier
- Sign the assessment envelope with Ed25519

Example:
  clauselens scan https://example.com/terms
  clauselens scan https://example.com/terms --json assessment.json
  clauselens scan --text-file terms.txt --hint "Acme"
  clauselens scan https://example.com/terms --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Output flags
	scanCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: stdout)")

	// Input flags
	scanCmd.Flags().StringVar(&textFile, "text-file", "", "read document text from a file instead of fetching a URL")
	scanCmd.Flags().StringVar(&productHint, "hint", "", "product name hint when the document does not state one")

	// HTTP flags
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "overall scan timeout")
	scanCmd.Flags().StringVar(&userAgent, "ua", "ClauseLens/0.1 (+https://github.com/clauselens/clauselens)", "HTTP User-Agent")
	scanCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh analysis)")
	scanCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")

	// Signing flags
	scanCmd.Flags().StringVar(&keyFile, "key-file", "", "Ed25519 signing key file (generated per run if empty)")

	// LLM flags
	scanCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "clause classification provider (openai, anthropic, ollama)")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "", "clause classification model name")
}

func runScan(cmd *cobra.Command, args []string) error {
	url := ""
	if len(args) == 1 {
		url = args[0]
	}
	if url == "" && textFile == "" {
		return fmt.Errorf("provide a URL argument or --text-file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	cfg := scanConfig()
	if err := resolveLLMEnv(cfg); err != nil {
		return err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	req := assessment.Request{URL: url, Hint: productHint, SkipCache: noCache}
	if textFile != "" {
		data, err := os.ReadFile(textFile)
		if err != nil {
			return fmt.Errorf("read text file: %w", err)
		}
		req.Text = string(data)
		req.URL = ""
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Assessing: %s\n", inputLabel(req))
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", scanTimeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	resp, err := builder.Build(ctx, req)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Risk level: %s (score %d)\n", resp.Assessment.RiskLevel, resp.Assessment.RiskScore)
		fmt.Fprintf(os.Stderr, "✓ Flags: %d, clauses: %d, highlights: %d\n",
			len(resp.Assessment.Flags), len(resp.Assessment.Clauses), len(resp.Assessment.Highlights))
		fmt.Fprintf(os.Stderr, "✓ Signed with key %s\n", resp.KeyID)
		fmt.Fprintln(os.Stderr)
	}

	return writeAssessment(resp, outJSON)
}

func scanConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = scanTimeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.RespectRobots = !noRobots
	cfg.Cache.Enabled = !noCache
	cfg.Signing.KeyFile = keyFile
	cfg.Output.Verbose = verbose
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
	}
	return cfg
}

func inputLabel(req assessment.Request) string {
	if req.URL != "" {
		return req.URL
	}
	return textFile
}

// writeAssessment renders the response as indented JSON to a file or stdout.
func writeAssessment(resp *model.AssessmentResponse, path string) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write assessment: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	}
	return nil
}
