package worker

import (
	"context"

	"github.com/clauselens/clauselens/internal/assessment"
	"github.com/clauselens/clauselens/internal/model"
)

// AssessJob assesses one URL through the shared builder.
type AssessJob struct {
	URL     string
	Builder *assessment.Builder
}

// AssessResult pairs a URL with its assessment or failure.
type AssessResult struct {
	URL      string
	Response *model.AssessmentResponse
	Err      error
}

// GetError implements Result.
func (r *AssessResult) GetError() error { return r.Err }

// Execute implements Job.
func (j *AssessJob) Execute(ctx context.Context) Result {
	resp, err := j.Builder.Build(ctx, assessment.Request{URL: j.URL})
	return &AssessResult{URL: j.URL, Response: resp, Err: err}
}

// AssessBatch runs every URL through the builder with the given
// concurrency and returns one result per URL. Order follows completion,
// not submission; each result carries its URL.
func AssessBatch(builder *assessment.Builder, urls []string, concurrency int) []*AssessResult {
	pool := NewPoolWithQueue(concurrency, len(urls))
	pool.Start()
	for _, u := range urls {
		pool.Submit(&AssessJob{URL: u, Builder: builder})
	}

	raw := pool.Wait()
	results := make([]*AssessResult, 0, len(raw))
	for _, r := range raw {
		if ar, ok := r.(*AssessResult); ok {
			results = append(results, ar)
		}
	}
	return results
}
