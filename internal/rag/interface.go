// Package rag implements the two-stage evidence retrieval engine behind the
// evidence agent's `retrieve` tool: a vector similarity search over the
// private profile-document corpus followed by cross-encoder reranking with
// score-threshold filtering. The interfaces here keep the agent layer free of
// any backend specifics — Qdrant, the embedding provider, and the reranker
// endpoint are all swappable behind them.
package rag

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the similarity-search backend could not be
// reached. Callers that run inside the evidence agent's tool loop convert it
// to a model-visible tool-error string; at ingestion/startup time it is fatal.
var ErrUnavailable = errors.New("rag: retrieval backend unavailable")

// Document represents a unit of retrieved or stored knowledge.
type Document struct {
	// ID is the unique identifier for this document chunk.
	ID string

	// Content is the raw text content of the chunk.
	Content string

	// Source is the origin file path or URI of the document.
	Source string

	// Metadata holds arbitrary key-value pairs (project, doc kind, etc.).
	Metadata map[string]string

	// Score is the similarity score assigned during the vector-search stage.
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore is the interface for persisting and searching document embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of documents with their pre-computed
	// embeddings. embeddings must be parallel to docs.
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search performs a semantic similarity search and returns the top-k
	// most relevant documents for the given query embedding.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the first retrieval stage: top-k candidates by embedding
// similarity, with no ordering guarantee beyond that.
// Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve returns the top-k most similar documents for the given query.
	Retrieve(ctx context.Context, query string, topK int) ([]Document, error)
}

// Reranker is the second retrieval stage: a cross-encoder scoring every
// (query, candidate) pair with a real-valued relevance score.
// Implementations must be safe to call from multiple goroutines.
type Reranker interface {
	// Score returns one relevance score per candidate, parallel to candidates.
	Score(ctx context.Context, query string, candidates []string) ([]float64, error)
}

// Searcher is the interface the evidence toolbox consumes: retrieve, rerank,
// filter, and return passage texts in relevance order.
type Searcher interface {
	// Search returns passages for query, descending by rerank score, keeping
	// only scores above the configured threshold. An empty result is not an
	// error — it means "no evidence found".
	Search(ctx context.Context, query string, k int) ([]string, error)
}
