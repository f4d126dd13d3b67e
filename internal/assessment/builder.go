// Package assessment orchestrates the analysis pipeline: fetch, extract,
// classify, aggregate, then sign the resulting envelope.
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/internal/attest"
	"github.com/clauselens/clauselens/internal/cache"
	"github.com/clauselens/clauselens/internal/classify"
	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/model"
	"github.com/clauselens/clauselens/internal/pipeline"
)

// ErrNoInput is returned when a request carries neither a URL nor raw text.
var ErrNoInput = errors.New("no input: provide a URL or document text")

// Request describes one assessment to produce. Exactly one of URL or Text
// drives the analysis; URL wins when both are set.
type Request struct {
	URL       string
	Text      string
	Hint      string // product name hint when the page does not state one
	SkipCache bool
}

// Builder runs the full pipeline and signs the outcome. The classifier is
// optional: without a model provider the assessment carries only the
// pattern-extracted document and flags.
type Builder struct {
	fetcher    pipeline.Fetcher
	classifier *classify.Classifier
	signer     *attest.Signer
	store      cache.Cache
	cacheTTL   time.Duration
	signTTL    time.Duration

	now   func() time.Time
	newID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithFetcher sets the page fetcher used for URL requests.
func WithFetcher(f pipeline.Fetcher) Option {
	return func(b *Builder) { b.fetcher = f }
}

// WithClassifier sets the model-backed clause classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(b *Builder) { b.classifier = c }
}

// WithCache enables the short-TTL assessment cache.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(b *Builder) {
		b.store = store
		b.cacheTTL = ttl
	}
}

// WithClock overrides the time source. Tests use this to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDSource overrides assessment ID generation.
func WithIDSource(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder creates a builder. signer is required; signTTL bounds how long
// each signed assessment stays valid.
func NewBuilder(signer *attest.Signer, signTTL time.Duration, opts ...Option) *Builder {
	b := &Builder{
		signer:  signer,
		signTTL: signTTL,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	if b.signTTL <= 0 {
		b.signTTL = 5 * time.Minute
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Signer exposes the builder's signer for key publication.
func (b *Builder) Signer() *attest.Signer { return b.signer }

// Build produces a signed assessment for the request. Cached responses are
// returned as-is when still unexpired.
func (b *Builder) Build(ctx context.Context, req Request) (*model.AssessmentResponse, error) {
	if req.URL == "" && req.Text == "" {
		return nil, ErrNoInput
	}

	key := b.cacheKey(req)
	if !req.SkipCache && key != "" {
		if resp, ok := b.cachedResponse(key); ok {
			return resp, nil
		}
	}

	text := req.Text
	if req.URL != "" {
		if b.fetcher == nil {
			return nil, fmt.Errorf("no fetcher configured for URL requests")
		}
		content, err := b.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
		}
		text = content.Text
		if req.Hint == "" {
			req.Hint = content.Title
		}
	}

	doc, flags := extract.Extract(text, req.Hint)

	var clauses []model.Clause
	failedChunks := 0
	if b.classifier != nil {
		result, err := b.classifier.ClassifyText(ctx, text)
		if err != nil {
			return nil, err
		}
		clauses = result.Clauses
		failedChunks = result.FailedChunks
	}

	page := classify.Aggregate(clauses)
	now := b.now().UTC()

	envelope := model.SignedAssessment{
		AssessmentID:       b.newID(),
		Timestamp:          now.Format(time.RFC3339),
		ExpiresAt:          now.Add(b.signTTL).Format(time.RFC3339),
		Seller:             pipeline.SellerFromURL(req.URL),
		Flags:              flags.ActiveFlags(),
		RiskFactorsSummary: riskFactorsSummary(page.Clauses),
		RiskScore:          page.RiskScore,
		RiskLevel:          page.OverallRisk.Label(),
		OverallRisk:        page.OverallRisk,
		Highlights:         page.Highlights,
		Clauses:            page.Clauses,
		Confidence:         confidence(len(page.Clauses), failedChunks),
	}
	normalizeEnvelope(&envelope)

	sig, err := b.signer.Sign(envelope)
	if err != nil {
		return nil, err
	}

	resp := &model.AssessmentResponse{
		Assessment:        envelope,
		Document:          &doc,
		RiskFlags:         &flags,
		Signature:         sig.Signature,
		SignedPayloadHash: sig.PayloadHash,
		KeyID:             sig.KeyID,
		Algorithm:         sig.Algorithm,
	}

	if key != "" {
		if data, err := json.Marshal(resp); err == nil {
			_ = b.store.Set(key, data, b.cacheTTL)
		}
	}
	return resp, nil
}

func (b *Builder) cacheKey(req Request) string {
	if b.store == nil {
		return ""
	}
	if req.URL != "" {
		return cache.KeyForURL(req.URL)
	}
	return cache.Key(req.Text)
}

// cachedResponse returns a cached response only while its envelope is
// still unexpired; a stale entry reads as a miss.
func (b *Builder) cachedResponse(key string) (*model.AssessmentResponse, bool) {
	data, found := b.store.Get(key)
	if !found {
		return nil, false
	}
	var resp model.AssessmentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	if attest.Expired(resp.Assessment.ExpiresAt, b.now()) {
		return nil, false
	}
	return &resp, true
}

// riskFactorsSummary counts non-green clauses per tag.
func riskFactorsSummary(clauses []model.Clause) map[string]int {
	summary := make(map[string]int)
	for _, c := range clauses {
		if c.Risk == model.RiskGreen {
			continue
		}
		summary[string(c.Tag)]++
	}
	return summary
}

// confidence grades how much signal backed the assessment. Any failed
// chunk or a thin clause list reads as low; a well-populated clean run
// reads as high.
func confidence(clauseCount, failedChunks int) string {
	switch {
	case failedChunks > 0 || clauseCount < 3:
		return "low"
	case clauseCount >= 8:
		return "high"
	default:
		return "medium"
	}
}

// normalizeEnvelope replaces nil collections with empty ones so the
// canonical form is stable regardless of how the envelope was built.
func normalizeEnvelope(a *model.SignedAssessment) {
	if a.Flags == nil {
		a.Flags = []string{}
	}
	if a.Highlights == nil {
		a.Highlights = []model.Highlight{}
	}
	if a.Clauses == nil {
		a.Clauses = []model.Clause{}
	}
}
