package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/avasant/folio-go/internal/embedder"
	"github.com/avasant/folio-go/internal/ingestion"
	"github.com/avasant/folio-go/internal/rag"
)

// NewIngestCmd constructs the `folio ingest` command, which indexes the
// profile document corpus into the Qdrant vector store.
func NewIngestCmd() *cobra.Command {
	var dirs []string
	var chunkSize int
	var chunkOverlap int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest the profile document corpus into the vector store",
		Long: `Walk local directories of markdown project docs, posts, and talk notes,
chunk and embed each document, and upsert the chunks into the Qdrant vector
store used by the evidence agent's retrieve tool.

Document metadata (category, project, tags) is read from an optional
"<file>.meta.yaml" sidecar next to each document, falling back to inference
from the directory layout (projects/, posts/, talks/, notes/).

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: folio-profile)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  folio ingest --dir ./corpus
  folio ingest --dir ./corpus/projects --dir ./corpus/talks
  folio ingest --dir ./corpus --chunk-size 800 --chunk-overlap 80`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := slog.Default()

			if len(dirs) == 0 {
				return fmt.Errorf("ingest: at least one --dir is required")
			}

			if err := embedder.ValidateForRetrieval(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}
			embBackend := getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))
			log.Info("embedder initialised", slog.String("provider", embBackend))

			qdrantHost := getEnvOrDefault("QDRANT_HOST", "localhost")
			qdrantPort := getEnvInt("QDRANT_PORT", 6334)
			collection := getEnvOrDefault("QDRANT_COLLECTION", "folio-profile")

			store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
				Host:       qdrantHost,
				Port:       qdrantPort,
				Collection: collection,
				VectorSize: uint64(embedder.DefaultDimensions(embBackend)), //nolint:gosec // dimensions are bounded
				APIKey:     os.Getenv("QDRANT_API_KEY"),
				UseTLS:     os.Getenv("QDRANT_TLS") == "true",
			})
			if err != nil {
				return fmt.Errorf("ingest: failed to connect to Qdrant at %s:%d: %w", qdrantHost, qdrantPort, err)
			}
			defer store.Close()
			log.Info("qdrant store ready",
				slog.String("host", qdrantHost),
				slog.Int("port", qdrantPort),
				slog.String("collection", collection),
			)

			pipeline, err := ingestion.NewPipeline(emb, store, &ingestion.Config{
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			for _, dir := range dirs {
				log.Info("ingesting directory", slog.String("dir", dir))
				if err := pipeline.IngestDir(ctx, dir, func(msg string) {
					log.Info(msg)
				}); err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
			}

			log.Info("ingestion complete", slog.Int("dirs", len(dirs)))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&dirs, "dir", "d", nil, "Corpus directory to ingest (repeatable)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Maximum characters per chunk (default 1000)")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "Characters of overlap between chunks (default 100)")

	return cmd
}
