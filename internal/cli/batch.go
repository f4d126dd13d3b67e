package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Assess multiple policy URLs from a file in parallel",
	Long: `Batch assesses multiple URLs concurrently:
- Read URLs from input file (one per line, # comments allowed)
- Process URLs in parallel with configurable worker count
- Write one signed assessment JSON per URL

Example:
  clauselens batch urls.txt
  clauselens batch urls.txt --concurrency 10 --output-dir ./assessments
  clauselens batch urls.txt --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./clauselens-assessments", "output directory for assessments")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	batchCmd.Flags().StringVar(&userAgent, "ua", "ClauseLens/0.1 (+https://github.com/clauselens/clauselens)", "HTTP User-Agent")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh analysis)")
	batchCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
	batchCmd.Flags().StringVar(&keyFile, "key-file", "", "Ed25519 signing key file (generated per run if empty)")

	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "clause classification provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "clause classification model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	urls, err := readURLFile(file)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", file)
	}

	cfg := scanConfig()
	cfg.HTTP.Timeout = 30 * time.Second
	if err := resolveLLMEnv(cfg); err != nil {
		return err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Assessing %d URLs with %d workers...\n\n", len(urls), concurrency)

	results := worker.AssessBatch(builder, urls, concurrency)

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Err)
			continue
		}
		successCount++

		path := filepath.Join(outputDir, assessmentFilename(result.URL))
		if err := writeAssessment(result.Response, path); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%s, score %d)\n",
			result.URL, result.Response.Assessment.RiskLevel, result.Response.Assessment.RiskScore)
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d, success: %d, failures: %d\n", len(results), successCount, failureCount)
	fmt.Fprintf(os.Stderr, "Output: %s\n", outputDir)

	if failureCount == len(results) {
		return fmt.Errorf("all %d assessments failed", failureCount)
	}
	return nil
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read URL file: %w", err)
	}
	return urls, nil
}

// assessmentFilename derives a stable output name from the URL host and path.
func assessmentFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return sanitizeFilename(rawURL) + ".json"
	}
	name := parsed.Host
	if p := strings.Trim(parsed.Path, "/"); p != "" {
		name += "_" + p
	}
	return sanitizeFilename(name) + ".json"
}

// sanitizeFilename replaces characters that are unsafe in filenames.
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
