// Package pipeline fetches policy pages and reduces them to plain text for
// analysis. The analysis core only depends on the Fetcher interface; the
// HTTP implementation here is the default collaborator.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/model"
)

// PageContent is what the analysis core consumes from a fetched page.
type PageContent struct {
	Title        string `json:"title"`
	Text         string `json:"text"`
	ContentHash  string `json:"content_hash"`
	ApproxLength int    `json:"approx_length"`
}

// Fetcher retrieves a page and reduces it to plain text plus a title.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*PageContent, error)
}

// HTTPFetcher implements Fetcher over HTTP with robots.txt and rate-limit
// politeness.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
	limiter    *rate.Limiter
}

// NewHTTPFetcher creates a fetcher from the HTTP configuration.
func NewHTTPFetcher(cfg model.HTTPConfig) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	if cfg.RatePerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(cfg.RateBurst, 1))
	}
	return f
}

const maxFetchAttempts = 3

// fetchSleepFunc is overridable in tests to avoid real backoff delays.
var fetchSleepFunc = time.Sleep

// Fetch retrieves the page with retry on transient failures.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*PageContent, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		content, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
		if attempt < maxFetchAttempts {
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	return nil, lastErr
}

// isRetryableFetchError reports whether a fetch failure is worth another
// attempt. Server-side trouble and connection drops are; client errors
// and malformed requests are not.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, code := range []string{"500", "502", "503", "504", "429"} {
		if strings.Contains(msg, "unexpected status: "+code) {
			return true
		}
	}
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset")
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) (*PageContent, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	if f.robots != nil {
		allowed, err := f.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			return nil, fmt.Errorf("robots.txt disallows fetching %s", rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	title, text := extractReadable(string(body))
	sum := sha256.Sum256([]byte(text))

	return &PageContent{
		Title:        title,
		Text:         text,
		ContentHash:  hex.EncodeToString(sum[:]),
		ApproxLength: len(text),
	}, nil
}

// extractReadable pulls the title and visible text out of an HTML page,
// skipping script/style/nav chrome. Non-HTML input degrades to the raw
// bytes as text.
func extractReadable(html string) (title, text string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", extract.Normalize(html)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, iframe, nav, header, footer").Remove()

	root := doc.Find("main")
	if root.Length() == 0 {
		root = doc.Find("article")
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var sb strings.Builder
	root.Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
		sb.WriteString(" ")
	})
	text = extract.Normalize(sb.String())
	if text == "" {
		text = extract.Normalize(html)
	}
	return title, text
}

// SellerFromURL derives the seller identity recorded in the signed
// envelope. Raw-text requests have no URL and yield an empty seller.
func SellerFromURL(rawURL string) model.Seller {
	if rawURL == "" {
		return model.Seller{}
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.Seller{URL: rawURL}
	}
	return model.Seller{Domain: parsed.Hostname(), URL: rawURL}
}
