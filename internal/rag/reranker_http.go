package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPReranker implements Reranker against a cross-encoder model served over
// HTTP with a text-embeddings-inference-compatible /rerank endpoint. The
// model itself (e.g. a ms-marco MiniLM cross-encoder) lives in the serving
// process; this client is constructed once at startup and is safe for
// concurrent use. Plain HTTP, no SDK — same approach as the embedder clients.
type HTTPReranker struct {
	// endpoint is the base URL of the reranker service (no trailing slash).
	endpoint string

	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// HTTPRerankerConfig holds the settings for constructing an HTTPReranker.
type HTTPRerankerConfig struct {
	// Endpoint is the base URL of the reranker service
	// (e.g. "http://localhost:8087").
	Endpoint string

	// Timeout bounds each scoring request. Defaults to 30s if zero.
	Timeout time.Duration
}

// NewHTTPReranker constructs an HTTPReranker from the given config.
func NewHTTPReranker(cfg *HTTPRerankerConfig) (*HTTPReranker, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("rag: reranker endpoint must not be empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPReranker{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// rerankRequest is the JSON body sent to the /rerank endpoint.
type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

// rerankResult is one element of the /rerank response array.
type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Score sends every (query, candidate) pair to the cross-encoder in one
// request and returns the raw relevance scores parallel to candidates.
func (r *HTTPReranker) Score(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	body, err := json.Marshal(rerankRequest{
		Query:     query,
		Texts:     candidates,
		RawScores: true,
	})
	if err != nil {
		return nil, fmt.Errorf("rag: encoding rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rag: creating rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rag: rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rag: reranker returned status %d: %s", resp.StatusCode, msg)
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("rag: decoding rerank response: %w", err)
	}
	if len(results) != len(candidates) {
		return nil, fmt.Errorf("rag: reranker returned %d results for %d candidates", len(results), len(candidates))
	}

	// The endpoint returns results sorted by score; restore input order so
	// the caller gets a slice parallel to candidates. A duplicate index would
	// leave another candidate's score silently at zero, so reject it like an
	// out-of-range one.
	scores := make([]float64, len(candidates))
	seen := make([]bool, len(candidates))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(scores) {
			return nil, fmt.Errorf("rag: reranker returned out-of-range index %d", res.Index)
		}
		if seen[res.Index] {
			return nil, fmt.Errorf("rag: reranker returned duplicate index %d", res.Index)
		}
		seen[res.Index] = true
		scores[res.Index] = res.Score
	}
	return scores, nil
}

// Warmup issues a tiny scoring request so a misconfigured or unreachable
// reranker fails at process startup instead of on the first user query.
func (r *HTTPReranker) Warmup(ctx context.Context) error {
	_, err := r.Score(ctx, "warmup", []string{"warmup"})
	if err != nil {
		return fmt.Errorf("rag: reranker warmup failed: %w", err)
	}
	return nil
}

// Name returns the dependency label used in readiness responses.
func (r *HTTPReranker) Name() string { return "reranker" }

// Ping satisfies the server's readiness Pinger contract.
func (r *HTTPReranker) Ping(ctx context.Context) error {
	return r.Warmup(ctx)
}
