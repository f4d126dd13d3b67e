package assessment

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clauselens/clauselens/internal/attest"
	"github.com/clauselens/clauselens/internal/cache"
	"github.com/clauselens/clauselens/internal/classify"
	"github.com/clauselens/clauselens/internal/llm"
	"github.com/clauselens/clauselens/internal/model"
	"github.com/clauselens/clauselens/internal/pipeline"
)

type fakeFetcher struct {
	content *pipeline.PageContent
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*pipeline.PageContent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

type fakeProvider struct {
	raw string
	err error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *fakeProvider) Classify(ctx context.Context, req llm.ClassifyRequest) (*llm.ClassifyResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ClassifyResponse{Raw: p.raw, Model: "fake"}, nil
}

func testSigner(t *testing.T) *attest.Signer {
	t.Helper()
	kp, err := attest.NewKeyFromSeed(bytes.Repeat([]byte{0x17}, 32))
	if err != nil {
		t.Fatalf("NewKeyFromSeed: %v", err)
	}
	return attest.NewSigner(kp)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const arbitrationText = "Welcome to Acme. Any dispute will be resolved through binding arbitration administered by JAMS. You waive your right to participate in a class action."

func TestBuild_NoInput(t *testing.T) {
	b := NewBuilder(testSigner(t), time.Minute)
	if _, err := b.Build(context.Background(), Request{}); !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}

func TestBuild_TextOnly(t *testing.T) {
	provider := &fakeProvider{raw: `{"clauses":[
		{"tag":"arbitration","risk":"R","plain_english":"Disputes go to arbitration."},
		{"tag":"arbitration","risk":"Y","plain_english":"The arbitration body is JAMS."}
	]}`}
	classifier := classify.NewClassifier(provider, model.ClassifyConfig{MaxChunkLen: 4000, Workers: 2}, time.Second)

	b := NewBuilder(testSigner(t), 5*time.Minute,
		WithClassifier(classifier),
		WithClock(fixedClock(testTime)),
		WithIDSource(func() string { return "test-id-1" }),
	)

	resp, err := b.Build(context.Background(), Request{Text: arbitrationText})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	asm := resp.Assessment
	if asm.AssessmentID != "test-id-1" {
		t.Errorf("unexpected assessment ID: %q", asm.AssessmentID)
	}
	if asm.Timestamp != "2026-03-10T12:00:00Z" {
		t.Errorf("unexpected timestamp: %q", asm.Timestamp)
	}
	if asm.ExpiresAt != "2026-03-10T12:05:00Z" {
		t.Errorf("unexpected expiry: %q", asm.ExpiresAt)
	}
	if asm.Seller.Domain != "" || asm.Seller.URL != "" {
		t.Errorf("raw-text request must have an empty seller, got %+v", asm.Seller)
	}
	// One red + one yellow arbitration clause.
	if asm.RiskScore != 3 {
		t.Errorf("risk score = %d, want 3", asm.RiskScore)
	}
	if asm.OverallRisk != model.RiskYellow || asm.RiskLevel != "yellow" {
		t.Errorf("overall = %s/%s, want Y/yellow", asm.OverallRisk, asm.RiskLevel)
	}
	if got := asm.RiskFactorsSummary["arbitration"]; got != 2 {
		t.Errorf("risk_factors_summary[arbitration] = %d, want 2", got)
	}
	if asm.Confidence != "low" {
		t.Errorf("confidence = %q, want low for 2 clauses", asm.Confidence)
	}

	// Pattern extraction runs alongside classification.
	if resp.RiskFlags == nil || !resp.RiskFlags.Arbitration || !resp.RiskFlags.ClassActionWaiver {
		t.Errorf("expected arbitration and class-waiver flags, got %+v", resp.RiskFlags)
	}
	found := false
	for _, f := range asm.Flags {
		if f == "arbitration" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected arbitration in flags, got %v", asm.Flags)
	}

	if resp.Algorithm != attest.Algorithm || resp.KeyID == "" || resp.Signature == "" {
		t.Errorf("incomplete signature material: %+v", resp)
	}
	res := Verify(b.Signer().PublicKey(), resp, testTime)
	if !res.Valid {
		t.Errorf("fresh assessment must verify, got %+v", res)
	}
}

func TestBuild_URLUsesFetcher(t *testing.T) {
	fetcher := &fakeFetcher{content: &pipeline.PageContent{
		Title: "Acme Terms",
		Text:  arbitrationText,
	}}
	b := NewBuilder(testSigner(t), time.Minute,
		WithFetcher(fetcher),
		WithClock(fixedClock(testTime)),
	)

	resp, err := b.Build(context.Background(), Request{URL: "https://acme.example/terms"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", fetcher.calls)
	}
	if resp.Assessment.Seller.Domain != "acme.example" {
		t.Errorf("unexpected seller: %+v", resp.Assessment.Seller)
	}
}

func TestBuild_FetchErrorPropagates(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	b := NewBuilder(testSigner(t), time.Minute, WithFetcher(fetcher))

	if _, err := b.Build(context.Background(), Request{URL: "https://down.example/terms"}); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestBuild_AllChunksFailedPropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model down")}
	classifier := classify.NewClassifier(provider, model.ClassifyConfig{MaxChunkLen: 4000, Workers: 2}, time.Second)
	b := NewBuilder(testSigner(t), time.Minute, WithClassifier(classifier))

	_, err := b.Build(context.Background(), Request{Text: arbitrationText})
	if !errors.Is(err, classify.ErrNoClauses) {
		t.Fatalf("expected ErrNoClauses, got %v", err)
	}
}

func TestBuild_NoClassifierStillSigns(t *testing.T) {
	b := NewBuilder(testSigner(t), time.Minute, WithClock(fixedClock(testTime)))

	resp, err := b.Build(context.Background(), Request{Text: arbitrationText})
	if err != nil {
		t.Fatalf("Build without classifier: %v", err)
	}
	if len(resp.Assessment.Clauses) != 0 {
		t.Errorf("expected no clauses without a classifier, got %d", len(resp.Assessment.Clauses))
	}
	if resp.Assessment.OverallRisk != model.RiskGreen {
		t.Errorf("zero clauses must aggregate green, got %s", resp.Assessment.OverallRisk)
	}
	if !Verify(b.Signer().PublicKey(), resp, testTime).Valid {
		t.Error("signature must verify even with an empty clause list")
	}
}

func TestBuild_CacheHitSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{content: &pipeline.PageContent{Text: arbitrationText}}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	b := NewBuilder(testSigner(t), 5*time.Minute,
		WithFetcher(fetcher),
		WithCache(store, time.Minute),
		WithClock(fixedClock(testTime)),
	)

	first, err := b.Build(context.Background(), Request{URL: "https://acme.example/terms"})
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, err := b.Build(context.Background(), Request{URL: "https://acme.example/privacy"})
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("same-domain request must hit the cache, got %d fetches", fetcher.calls)
	}
	if first.Assessment.AssessmentID != second.Assessment.AssessmentID {
		t.Error("cache hit must return the original assessment")
	}
}

func TestBuild_SkipCacheForcesRecompute(t *testing.T) {
	fetcher := &fakeFetcher{content: &pipeline.PageContent{Text: arbitrationText}}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	b := NewBuilder(testSigner(t), 5*time.Minute,
		WithFetcher(fetcher),
		WithCache(store, time.Minute),
	)

	for i := 0; i < 2; i++ {
		if _, err := b.Build(context.Background(), Request{URL: "https://acme.example/terms", SkipCache: true}); err != nil {
			t.Fatalf("Build %d: %v", i, err)
		}
	}
	if fetcher.calls != 2 {
		t.Errorf("SkipCache must bypass the cache, got %d fetches", fetcher.calls)
	}
}

func TestBuild_ExpiredCacheEntryRecomputed(t *testing.T) {
	fetcher := &fakeFetcher{content: &pipeline.PageContent{Text: arbitrationText}}
	store := cache.NewMemoryCache(time.Minute, time.Minute)

	now := testTime
	b := NewBuilder(testSigner(t), time.Minute,
		WithFetcher(fetcher),
		WithCache(store, 10*time.Minute),
		WithClock(func() time.Time { return now }),
	)

	if _, err := b.Build(context.Background(), Request{URL: "https://acme.example/terms"}); err != nil {
		t.Fatalf("first Build: %v", err)
	}

	// The cache entry outlives the envelope's validity window.
	now = testTime.Add(2 * time.Minute)
	if _, err := b.Build(context.Background(), Request{URL: "https://acme.example/terms"}); err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("an expired envelope must not be served from cache, got %d fetches", fetcher.calls)
	}
}

func TestVerify_ExpiryCheckedFirst(t *testing.T) {
	b := NewBuilder(testSigner(t), time.Minute, WithClock(fixedClock(testTime)))
	resp, err := b.Build(context.Background(), Request{Text: arbitrationText})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Tamper AND expire: expiry must be the reported reason.
	resp.Assessment.RiskScore += 10
	res := Verify(b.Signer().PublicKey(), resp, testTime.Add(time.Hour))
	if res.Valid {
		t.Fatal("expired assessment must not verify")
	}
	if res.Reason == "" || res.Reason[0:10] != "assessment" {
		t.Errorf("expected expiry reason first, got %q", res.Reason)
	}
}

func TestVerify_TamperDetected(t *testing.T) {
	b := NewBuilder(testSigner(t), time.Hour, WithClock(fixedClock(testTime)))
	resp, err := b.Build(context.Background(), Request{Text: arbitrationText})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resp.Assessment.RiskLevel = "green"
	res := Verify(b.Signer().PublicKey(), resp, testTime)
	if res.Valid {
		t.Fatal("tampered payload must not verify")
	}
}

func TestVerify_AlgorithmDefaultsWhenAbsent(t *testing.T) {
	b := NewBuilder(testSigner(t), time.Hour, WithClock(fixedClock(testTime)))
	resp, err := b.Build(context.Background(), Request{Text: arbitrationText})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resp.Algorithm = ""
	if res := Verify(b.Signer().PublicKey(), resp, testTime); !res.Valid {
		t.Errorf("empty algorithm means the default scheme, got %+v", res)
	}

	resp.Algorithm = "rs256"
	if res := Verify(b.Signer().PublicKey(), resp, testTime); res.Valid {
		t.Error("an explicitly different algorithm must be rejected")
	}
}

func TestVerify_MalformedExpiryFailsClosed(t *testing.T) {
	b := NewBuilder(testSigner(t), time.Hour, WithClock(fixedClock(testTime)))
	resp, err := b.Build(context.Background(), Request{Text: arbitrationText})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resp.Assessment.ExpiresAt = "not-a-timestamp"
	if Verify(b.Signer().PublicKey(), resp, testTime).Valid {
		t.Fatal("malformed expiry must fail closed")
	}
}

func TestConfidence(t *testing.T) {
	cases := []struct {
		clauses, failed int
		want            string
	}{
		{0, 0, "low"},
		{2, 0, "low"},
		{5, 1, "low"},
		{10, 2, "low"},
		{3, 0, "medium"},
		{7, 0, "medium"},
		{8, 0, "high"},
		{20, 0, "high"},
	}
	for _, tc := range cases {
		if got := confidence(tc.clauses, tc.failed); got != tc.want {
			t.Errorf("confidence(%d, %d) = %q, want %q", tc.clauses, tc.failed, got, tc.want)
		}
	}
}
