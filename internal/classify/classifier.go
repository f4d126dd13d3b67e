package classify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/clauselens/clauselens/internal/chunk"
	"github.com/clauselens/clauselens/internal/llm"
	"github.com/clauselens/clauselens/internal/model"
)

// ErrNoClauses is returned when every chunk of a non-empty document failed
// to classify. Distinct from a successful run that found nothing: an
// all-green or clause-free document is a valid, reportable outcome.
var ErrNoClauses = errors.New("no clauses produced: all classification chunks failed")

// Classifier fans document chunks out to the model provider and joins the
// validated results back in submission order.
type Classifier struct {
	provider    llm.Provider
	maxChunkLen int
	workers     int
	timeout     time.Duration
	verbose     bool
}

// NewClassifier creates a classifier. timeout bounds each chunk call.
func NewClassifier(provider llm.Provider, cfg model.ClassifyConfig, timeout time.Duration) *Classifier {
	maxChunkLen := cfg.MaxChunkLen
	if maxChunkLen <= 0 {
		maxChunkLen = 4000
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{
		provider:    provider,
		maxChunkLen: maxChunkLen,
		workers:     workers,
		timeout:     timeout,
	}
}

// Result carries the classification outcome for one document.
type Result struct {
	Clauses      []model.Clause
	ChunkCount   int
	FailedChunks int
}

// ClassifyText chunks text and classifies every chunk concurrently. A
// failed or timed-out chunk contributes zero clauses; the document only
// fails when every chunk failed. Results are joined in chunk emission
// order, not completion order, so aggregation tie-breaks stay stable.
func (c *Classifier) ClassifyText(ctx context.Context, text string) (*Result, error) {
	chunks := chunk.Split(text, c.maxChunkLen)
	if len(chunks) == 0 {
		return &Result{}, nil
	}

	perChunk := make([][]model.Clause, len(chunks))
	failed := make([]bool, len(chunks))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.workers)

	for i, ch := range chunks {
		wg.Add(1)
		go func(idx int, segment string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				failed[idx] = true
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			clauses, err := c.classifyChunk(ctx, segment)
			if err != nil {
				failed[idx] = true
				if c.verbose {
					fmt.Fprintf(os.Stderr, "Warning: chunk %d classification failed: %v\n", idx, err)
				}
				return
			}
			perChunk[idx] = clauses
		}(i, ch)
	}
	wg.Wait()

	result := &Result{ChunkCount: len(chunks)}
	for i := range chunks {
		if failed[i] {
			result.FailedChunks++
			continue
		}
		result.Clauses = append(result.Clauses, perChunk[i]...)
	}

	if result.FailedChunks == len(chunks) {
		return nil, ErrNoClauses
	}
	return result, nil
}

// classifyChunk makes exactly one model call; retries are the caller's
// concern, not this contract's.
func (c *Classifier) classifyChunk(ctx context.Context, segment string) ([]model.Clause, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.provider.Classify(callCtx, llm.ClassifyRequest{Chunk: segment})
	if err != nil {
		return nil, err
	}
	// A chunk producing zero valid clauses is a valid, uninformative result.
	return ParseClauses(resp.Raw), nil
}

// SetVerbose enables per-chunk failure warnings on stderr.
func (c *Classifier) SetVerbose(v bool) { c.verbose = v }
