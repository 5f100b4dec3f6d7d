package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeRetriever returns a fixed candidate set or a configurable error.
type fakeRetriever struct {
	docs []Document
	err  error
	// lastQuery records what the searcher asked for.
	lastQuery string
	lastTopK  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, topK int) ([]Document, error) {
	f.lastQuery = query
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

// fakeReranker scores candidates from a lookup table keyed by passage text.
type fakeReranker struct {
	scores map[string]float64
	err    error
}

func (f *fakeReranker) Score(_ context.Context, _ string, candidates []string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = f.scores[c]
	}
	return out, nil
}

func docs(texts ...string) []Document {
	out := make([]Document, len(texts))
	for i, t := range texts {
		out[i] = Document{ID: fmt.Sprintf("d%d", i), Content: t}
	}
	return out
}

func newTestSearcher(t *testing.T, r Retriever, rr Reranker, cfg *RerankConfig) *RerankSearcher {
	t.Helper()
	s, err := NewRerankSearcher(r, rr, cfg)
	if err != nil {
		t.Fatalf("NewRerankSearcher() error = %v", err)
	}
	return s
}

func TestSearchOrdersByScoreDescending(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: docs("low", "high", "mid")}
	reranker := &fakeReranker{scores: map[string]float64{"low": 0.1, "high": 0.9, "mid": 0.5}}
	s := newTestSearcher(t, retriever, reranker, nil)

	got, err := s.Search(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := []string{"high", "mid", "low"}
	if len(got) != len(want) {
		t.Fatalf("Search() returned %d passages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Search()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSearchFiltersAtOrBelowThreshold(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: docs("neg", "zero", "pos")}
	reranker := &fakeReranker{scores: map[string]float64{"neg": -2.3, "zero": 0.0, "pos": 1.7}}
	s := newTestSearcher(t, retriever, reranker, nil)

	got, err := s.Search(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	// Threshold is exclusive: a score of exactly 0.0 is discarded.
	if len(got) != 1 || got[0] != "pos" {
		t.Errorf("Search() = %v, want [pos]", got)
	}
}

func TestSearchAllBelowThresholdIsEmptyNotError(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: docs("a", "b")}
	reranker := &fakeReranker{scores: map[string]float64{"a": -1.0, "b": -0.5}}
	s := newTestSearcher(t, retriever, reranker, nil)

	got, err := s.Search(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil for all-filtered result", err)
	}
	if len(got) != 0 {
		t.Errorf("Search() = %v, want empty", got)
	}
}

func TestSearchEmptyCandidateSetIsEmptyNotError(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: nil}
	reranker := &fakeReranker{}
	s := newTestSearcher(t, retriever, reranker, nil)

	got, err := s.Search(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil for empty candidate set", err)
	}
	if len(got) != 0 {
		t.Errorf("Search() = %v, want empty", got)
	}
}

func TestSearchStableTieBreak(t *testing.T) {
	t.Parallel()

	// "first" and "second" tie; "first" came earlier in the similarity stage
	// and must stay ahead after reranking.
	retriever := &fakeRetriever{docs: docs("first", "second", "top")}
	reranker := &fakeReranker{scores: map[string]float64{"first": 0.4, "second": 0.4, "top": 0.8}}
	s := newTestSearcher(t, retriever, reranker, nil)

	got, err := s.Search(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := []string{"top", "first", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Search() = %v, want %v", got, want)
		}
	}
}

func TestSearchCustomThreshold(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: docs("a", "b", "c")}
	reranker := &fakeReranker{scores: map[string]float64{"a": 0.3, "b": 0.6, "c": 0.9}}
	s := newTestSearcher(t, retriever, reranker, &RerankConfig{Threshold: 0.5})

	got, err := s.Search(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []string{"c", "b"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Search() = %v, want %v", got, want)
	}
}

func TestSearchPropagatesBackendUnavailable(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{err: fmt.Errorf("%w: connection refused", ErrUnavailable)}
	s := newTestSearcher(t, retriever, &fakeReranker{}, nil)

	_, err := s.Search(context.Background(), "query", 3)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Search() error = %v, want ErrUnavailable", err)
	}
}

func TestSearchRerankerLengthMismatch(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: docs("a", "b")}
	s := newTestSearcher(t, retriever, &shortReranker{}, nil)

	_, err := s.Search(context.Background(), "query", 2)
	if err == nil {
		t.Error("Search() error = nil, want length-mismatch error")
	}
}

// shortReranker returns fewer scores than candidates to exercise the
// mismatch guard.
type shortReranker struct{}

func (s *shortReranker) Score(_ context.Context, _ string, candidates []string) ([]float64, error) {
	return make([]float64, len(candidates)-1), nil
}

func TestSearchDefaultTopKWhenZero(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: docs("a")}
	reranker := &fakeReranker{scores: map[string]float64{"a": 1.0}}
	s := newTestSearcher(t, retriever, reranker, &RerankConfig{TopK: 7})

	if _, err := s.Search(context.Background(), "query", 0); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if retriever.lastTopK != 7 {
		t.Errorf("stage-one topK = %d, want configured default 7", retriever.lastTopK)
	}
}
