package rag

import (
	"context"
	"fmt"
	"sort"
)

// DefaultRerankThreshold is the score below which (inclusive) candidates are
// discarded. Cross-encoder models emit signed logits; non-positive scores
// indicate the passage is not relevant to the query.
const DefaultRerankThreshold = 0.0

// RerankSearcher is the two-stage retrieval engine: vector similarity search
// for candidates, cross-encoder scoring for precision, threshold filtering,
// and score-descending ordering with a stable tie-break on the original
// retrieval order.
type RerankSearcher struct {
	// retriever supplies the stage-one candidate set.
	retriever Retriever

	// reranker scores every (query, candidate) pair.
	reranker Reranker

	// threshold is the exclusive lower bound on rerank scores.
	threshold float64

	// defaultTopK is the candidate count requested when Search is called with k=0.
	defaultTopK int
}

// RerankConfig holds the tuning knobs for a RerankSearcher.
type RerankConfig struct {
	// Threshold is the exclusive lower bound on rerank scores.
	// Candidates scoring at or below it are discarded. Defaults to
	// DefaultRerankThreshold (0.0) when the zero value is passed and
	// UseZeroThreshold is false.
	Threshold float64

	// TopK is the stage-one candidate count when the caller passes k=0.
	// Defaults to 10.
	TopK int
}

// NewRerankSearcher constructs a RerankSearcher from a stage-one retriever
// and a cross-encoder reranker.
func NewRerankSearcher(retriever Retriever, reranker Reranker, cfg *RerankConfig) (*RerankSearcher, error) {
	if retriever == nil {
		return nil, fmt.Errorf("rag: retriever must not be nil")
	}
	if reranker == nil {
		return nil, fmt.Errorf("rag: reranker must not be nil")
	}
	if cfg == nil {
		cfg = &RerankConfig{}
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 10
	}
	return &RerankSearcher{
		retriever:   retriever,
		reranker:    reranker,
		threshold:   cfg.Threshold,
		defaultTopK: topK,
	}, nil
}

// scored pairs a candidate passage with its rerank score and its position in
// the stage-one result so ties can be broken deterministically.
type scored struct {
	text  string
	score float64
	rank  int
}

// Search retrieves k candidates, scores them with the cross-encoder, drops
// everything at or below the threshold, and returns the surviving passage
// texts in descending score order. Equal scores retain their stage-one
// relative order. An empty result means "no evidence found", not failure.
func (s *RerankSearcher) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = s.defaultTopK
	}

	docs, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []string{}, nil
	}

	candidates := make([]string, len(docs))
	for i, d := range docs {
		candidates[i] = d.Content
	}

	scores, err := s.reranker.Score(ctx, query, candidates)
	if err != nil {
		return nil, fmt.Errorf("rag: rerank scoring failed: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("rag: reranker returned %d scores for %d candidates", len(scores), len(candidates))
	}

	kept := make([]scored, 0, len(candidates))
	for i, sc := range scores {
		if sc <= s.threshold {
			continue
		}
		kept = append(kept, scored{text: candidates[i], score: sc, rank: i})
	}

	// Stable sort preserves the original retrieval order for equal scores.
	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].score > kept[b].score
	})

	out := make([]string, len(kept))
	for i, c := range kept {
		out[i] = c.text
	}
	return out, nil
}
