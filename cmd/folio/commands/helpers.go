package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/avasant/folio-go/internal/agents"
	"github.com/avasant/folio-go/internal/embedder"
	"github.com/avasant/folio-go/internal/llm"
	"github.com/avasant/folio-go/internal/pipeline"
	"github.com/avasant/folio-go/internal/profile"
	"github.com/avasant/folio-go/internal/provider"
	"github.com/avasant/folio-go/internal/rag"
	"github.com/avasant/folio-go/internal/server"
)

// retrievalStack bundles the two-stage retrieval engine with the handles the
// serve command needs for readiness probes and shutdown.
type retrievalStack struct {
	// Searcher is nil when QDRANT_HOST is not set — the retrieve tool then
	// reports the corpus as unconfigured instead of failing at startup.
	Searcher rag.Searcher
	// Store is the Qdrant store, for the readiness pinger. Nil when disabled.
	Store *rag.QdrantStore
	// Reranker is the cross-encoder client, for the readiness pinger. Nil when disabled.
	Reranker *rag.HTTPReranker
	// Close releases the Qdrant connection.
	Close func()
}

// buildRetrieval constructs the vector-search + rerank retrieval engine from
// the environment. When QDRANT_HOST is unset retrieval is disabled and a
// stack with nil components is returned. When it is set, both the embedder
// and the reranker endpoint must be usable — a corpus without reranking
// would silently degrade answer quality, so misconfiguration is fatal.
func buildRetrieval(ctx context.Context, log *slog.Logger) (*retrievalStack, error) {
	if os.Getenv("QDRANT_HOST") == "" {
		log.Info("retrieval disabled", slog.String("reason", "QDRANT_HOST not set"))
		return &retrievalStack{Close: func() {}}, nil
	}

	if err := embedder.ValidateForRetrieval(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("initialising embedder: %w", err)
	}

	embBackend := getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))
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
		return nil, fmt.Errorf("connecting to Qdrant at %s:%d: %w", qdrantHost, qdrantPort, err)
	}
	log.Info("qdrant store ready",
		slog.String("host", qdrantHost),
		slog.Int("port", qdrantPort),
		slog.String("collection", collection),
	)

	rerankerEndpoint := os.Getenv("RERANKER_ENDPOINT")
	if rerankerEndpoint == "" {
		_ = store.Close()
		return nil, fmt.Errorf("QDRANT_HOST is set but RERANKER_ENDPOINT is not — two-stage retrieval requires a rerank service")
	}
	reranker, err := rag.NewHTTPReranker(&rag.HTTPRerankerConfig{Endpoint: rerankerEndpoint})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	// The first rerank call loads the cross-encoder model; warm it up now so
	// the first visitor query doesn't absorb the cold start, and fail fast if
	// the service is down.
	if err := reranker.Warmup(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("reranker warmup at %s: %w", rerankerEndpoint, err)
	}
	log.Info("reranker ready", slog.String("endpoint", rerankerEndpoint))

	retriever, err := rag.NewRetriever(emb, store, getEnvInt("RETRIEVAL_TOP_K", 10))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	searcher, err := rag.NewRerankSearcher(retriever, reranker, &rag.RerankConfig{
		TopK:      getEnvInt("RETRIEVAL_TOP_K", 10),
		Threshold: getEnvFloat("RETRIEVAL_THRESHOLD", rag.DefaultRerankThreshold),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &retrievalStack{
		Searcher: searcher,
		Store:    store,
		Reranker: reranker,
		Close:    func() { _ = store.Close() },
	}, nil
}

// buildCoordinator assembles the full agent pipeline: routing, evidence,
// optional public persona, and presentation, all sharing one LLM client.
func buildCoordinator(ctx context.Context, searcher rag.Searcher, log *slog.Logger) (*pipeline.Coordinator, error) {
	subject := os.Getenv("PROFILE_SUBJECT")
	if subject == "" {
		return nil, fmt.Errorf("PROFILE_SUBJECT must be set to the name of the person this assistant represents")
	}

	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising model provider: %w", err)
	}
	client, err := llm.New(chatModel, getEnvInt("MODEL_MAX_TOOL_STEPS", llm.DefaultMaxToolSteps))
	if err != nil {
		return nil, err
	}

	library, err := profile.LoadLibrary(profile.LibraryConfig{
		ResumePath:     os.Getenv("PROFILE_RESUME_PATH"),
		BioPath:        os.Getenv("PROFILE_BIO_PATH"),
		OldResumePath:  os.Getenv("PROFILE_OLD_RESUME_PATH"),
		TranscriptPath: os.Getenv("PROFILE_TRANSCRIPT_PATH"),
	})
	if err != nil {
		return nil, err
	}

	// GitHub listing is optional — without an owner the tool reports itself
	// unavailable rather than blocking startup.
	var repos agents.RepoLister
	if owner := os.Getenv("GITHUB_OWNER"); owner != "" {
		gh, err := profile.NewGitHubLister(profile.GitHubListerConfig{Owner: owner})
		if err != nil {
			return nil, err
		}
		repos = gh
	} else {
		log.Info("github repo listing disabled", slog.String("reason", "GITHUB_OWNER not set"))
	}

	toolbox := agents.NewToolbox(library, repos, searcher)

	router := agents.NewRoutingAgent(client, subject)
	evidence := agents.NewEvidenceAgent(client, toolbox, subject)
	presenter := agents.NewPresentationAgent(client, subject)

	persona := buildPersona(client, subject, log)

	return pipeline.New(router, evidence, persona, presenter), nil
}

// buildPersona wires the public-persona agent when at least one social
// source is configured. Returns nil otherwise; the coordinator then degrades
// persona requests to an empty event.
func buildPersona(client *llm.Client, subject string, log *slog.Logger) pipeline.Gatherer {
	var videos agents.VideoLister
	var media agents.MediaLister

	if key, channel := os.Getenv("YOUTUBE_API_KEY"), os.Getenv("YOUTUBE_CHANNEL_ID"); key != "" && channel != "" {
		yt, err := profile.NewYouTubeLister(profile.YouTubeListerConfig{APIKey: key, ChannelID: channel})
		if err != nil {
			log.Warn("youtube lister unavailable", slog.Any("error", err))
		} else {
			videos = yt
		}
	}
	if token := os.Getenv("INSTAGRAM_ACCESS_TOKEN"); token != "" {
		ig, err := profile.NewInstagramLister(profile.InstagramListerConfig{AccessToken: token})
		if err != nil {
			log.Warn("instagram lister unavailable", slog.Any("error", err))
		} else {
			media = ig
		}
	}

	if videos == nil && media == nil {
		log.Info("public persona agent disabled", slog.String("reason", "no social sources configured"))
		return nil
	}
	return agents.NewPublicPersonaAgent(client, agents.NewSocialToolbox(videos, media), subject)
}

// buildPingers assembles the readiness probes for the configured dependencies.
func buildPingers(stack *retrievalStack) []server.Pinger {
	var pingers []server.Pinger
	if stack.Store != nil {
		pingers = append(pingers, server.NewQdrantPinger(stack.Store.Client()))
	}
	if stack.Reranker != nil {
		pingers = append(pingers, stack.Reranker)
	}
	return pingers
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat returns the float value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
