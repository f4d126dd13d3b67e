package chunk

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 100); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}
	if got := Split("   \n\t ", 100); got != nil {
		t.Errorf("Expected nil for whitespace input, got %v", got)
	}
}

func TestSplit_SingleShortSentence(t *testing.T) {
	chunks := Split("We collect your data.", 100)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "We collect your data." {
		t.Errorf("Unexpected chunk: %q", chunks[0])
	}
}

func TestSplit_PacksSentencesGreedily(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := Split(text, 45)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "First sentence here. Second sentence here." {
		t.Errorf("Unexpected first chunk: %q", chunks[0])
	}
	if chunks[1] != "Third sentence here." {
		t.Errorf("Unexpected second chunk: %q", chunks[1])
	}
}

func TestSplit_BoundaryInvariant(t *testing.T) {
	text := "Alpha beta gamma delta. Epsilon zeta eta! Theta iota kappa? " +
		"Lambda mu nu xi omicron pi rho. Sigma tau upsilon."

	for _, maxLen := range []int{20, 40, 60, 500} {
		chunks := Split(text, maxLen)
		for _, c := range chunks {
			if len(c) > maxLen && strings.ContainsAny(c[:len(c)-1], ".!?") {
				// An oversize chunk is only allowed when it is a single
				// unsplittable sentence.
				t.Errorf("maxLen=%d: oversize chunk contains multiple sentences: %q", maxLen, c)
			}
		}
		// No sentence content lost.
		joined := strings.Join(chunks, " ")
		if joined != text {
			t.Errorf("maxLen=%d: reconstruction mismatch:\n%q\n%q", maxLen, joined, text)
		}
	}
}

func TestSplit_OversizeSentenceEmittedWhole(t *testing.T) {
	long := "This single sentence is far longer than the maximum chunk length allowed here."
	chunks := Split(long+" Short one.", 30)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != long {
		t.Errorf("Expected oversize sentence emitted whole, got %q", chunks[0])
	}
}

func TestSplit_Idempotent(t *testing.T) {
	text := "One sentence. Two sentence. Three sentence. Four sentence. Five sentence."
	maxLen := 32

	chunks := Split(text, maxLen)
	for _, c := range chunks {
		again := Split(c, maxLen)
		if len(again) != 1 || again[0] != c {
			t.Errorf("Re-chunking %q was not a no-op: %v", c, again)
		}
	}
}
