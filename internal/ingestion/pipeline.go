// Package ingestion implements the profile-corpus ingestion pipeline.
// It walks local directories of markdown project docs, chunks the content,
// embeds each chunk, and upserts the results into the vector store.
// This pipeline is invoked by the `folio ingest` CLI command.
package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/avasant/folio-go/internal/rag"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per document chunk.
	// Defaults to 1000 if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters to overlap between consecutive chunks.
	// Defaults to 100 if zero.
	ChunkOverlap int
}

// Pipeline orchestrates the walk → chunk → embed → upsert flow for a corpus
// of profile documents on local disk.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 100
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}, nil
}

// corpusExtensions lists the file extensions treated as corpus documents.
var corpusExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// IngestDir walks root recursively, ingesting every corpus document found.
// Files are processed in lexical path order so repeated runs are
// deterministic. Progress is reported via the optional progress callback.
func (p *Pipeline) IngestDir(ctx context.Context, root string, progress func(msg string)) error {
	if progress == nil {
		progress = func(string) {}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !corpusExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if isSidecar(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ingestion: walking %s: %w", root, err)
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("ingestion: no corpus documents found under %s", root)
	}

	for _, f := range files {
		if err := p.IngestFile(ctx, f, progress); err != nil {
			return err
		}
	}
	progress(fmt.Sprintf("ingested %d files from %s", len(files), root))
	return nil
}

// IngestFile chunks, embeds, and stores one corpus document. Metadata comes
// from the file's sidecar when present, otherwise it is inferred from the path.
func (p *Pipeline) IngestFile(ctx context.Context, path string, progress func(msg string)) error {
	if progress == nil {
		progress = func(string) {}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ingestion: reading %s: %w", path, err)
	}

	chunks := p.chunk(string(raw))
	if len(chunks) == 0 {
		progress(fmt.Sprintf("skipping empty file %s", path))
		return nil
	}
	progress(fmt.Sprintf("chunked %s into %d chunks", path, len(chunks)))

	embeddings, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("ingestion: embedding failed for %s: %w", path, err)
	}

	meta, err := LoadMetadata(path)
	if err != nil {
		return fmt.Errorf("ingestion: metadata for %s: %w", path, err)
	}

	docs := make([]rag.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, rag.Document{
			ID:      chunkID(path, i),
			Content: chunk,
			Source:  path,
			Metadata: map[string]string{
				"category":    meta.Category,
				"project":     meta.Project,
				"tags":        strings.Join(meta.Tags, ","),
				"chunk_index": fmt.Sprintf("%d", i),
			},
		})
	}

	if err := p.store.Upsert(ctx, docs, embeddings); err != nil {
		return fmt.Errorf("ingestion: upsert failed for %s: %w", path, err)
	}

	progress(fmt.Sprintf("ingested %d chunks from %s", len(chunks), path))
	return nil
}

// chunk splits text into overlapping chunks of cfg.ChunkSize characters.
func (p *Pipeline) chunk(text string) []string {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}

	var chunks []string
	size := p.cfg.ChunkSize
	overlap := p.cfg.ChunkOverlap

	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}

	return chunks
}

// chunkID generates a deterministic ID for a document chunk based on its
// source path and chunk index, so re-ingesting a file overwrites in place.
func chunkID(path string, index int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", path, index)))
	return fmt.Sprintf("%x", h[:16])
}
