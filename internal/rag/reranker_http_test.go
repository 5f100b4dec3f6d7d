package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newRerankTestServer serves a canned /rerank handler and returns a client
// pointed at it.
func newRerankTestServer(t *testing.T, handler http.HandlerFunc) *HTTPReranker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r, err := NewHTTPReranker(&HTTPRerankerConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPReranker() error = %v", err)
	}
	return r
}

func TestHTTPRerankerScoreRestoresInputOrder(t *testing.T) {
	t.Parallel()

	r := newRerankTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		var body rerankRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		// Respond sorted by score, the way TEI-style servers do.
		_ = json.NewEncoder(w).Encode([]rerankResult{
			{Index: 1, Score: 0.9},
			{Index: 0, Score: 0.2},
		})
	})

	scores, err := r.Score(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if scores[0] != 0.2 || scores[1] != 0.9 {
		t.Errorf("Score() = %v, want scores restored to input order [0.2 0.9]", scores)
	}
}

func TestHTTPRerankerScoreEmptyCandidates(t *testing.T) {
	t.Parallel()

	r := newRerankTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		t.Error("no request expected for empty candidate set")
	})

	scores, err := r.Score(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("Score() = %v, want empty", scores)
	}
}

func TestHTTPRerankerScoreNon200(t *testing.T) {
	t.Parallel()

	r := newRerankTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})

	if _, err := r.Score(context.Background(), "q", []string{"a"}); err == nil {
		t.Error("Score() error = nil, want error for 503")
	}
}

func TestHTTPRerankerScoreOutOfRangeIndex(t *testing.T) {
	t.Parallel()

	r := newRerankTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode([]rerankResult{{Index: 5, Score: 1.0}})
	})

	if _, err := r.Score(context.Background(), "q", []string{"a"}); err == nil {
		t.Error("Score() error = nil, want out-of-range index error")
	}
}

func TestHTTPRerankerScoreDuplicateIndex(t *testing.T) {
	t.Parallel()

	r := newRerankTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		// Two results for index 0 and none for index 1: the length check
		// passes but one candidate would be left unscored.
		_ = json.NewEncoder(w).Encode([]rerankResult{
			{Index: 0, Score: 0.9},
			{Index: 0, Score: 0.2},
		})
	})

	if _, err := r.Score(context.Background(), "q", []string{"a", "b"}); err == nil {
		t.Error("Score() error = nil, want duplicate index error")
	}
}

func TestHTTPRerankerWarmup(t *testing.T) {
	t.Parallel()

	r := newRerankTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode([]rerankResult{{Index: 0, Score: 0.1}})
	})

	if err := r.Warmup(context.Background()); err != nil {
		t.Errorf("Warmup() error = %v", err)
	}
}

func TestNewHTTPRerankerRequiresEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPReranker(&HTTPRerankerConfig{}); err == nil {
		t.Error("NewHTTPReranker() error = nil, want error for empty endpoint")
	}
}
