package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avasant/folio-go/internal/pipeline"
	"github.com/avasant/folio-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// ChatTimeout bounds one full /api/chat pipeline run, streaming included.
	ChatTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// HistoryWindow is the number of prior messages loaded per session as
	// conversation context. Defaults to 20 if zero.
	HistoryWindow int
	// MetricsRegistry receives the server's Prometheus metric registrations.
	// If nil, prometheus.DefaultRegisterer is used.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. If nil, prometheus.DefaultGatherer is used.
	MetricsGatherer prometheus.Gatherer
}

// processor is the interface handleChat calls to run one query through the
// agent pipeline. *pipeline.Coordinator satisfies it; tests inject a fake.
type processor interface {
	Process(ctx context.Context, query string, conv *pipeline.Conversation, emit pipeline.EventSink) (string, error)
}

// Server is the HTTP server that exposes the agent pipeline over REST/SSE.
type Server struct {
	// processor runs queries; set to the pipeline coordinator in production,
	// overridden by a fake in tests.
	processor processor
	// history persists per-session conversation turns. May be nil, in which
	// case sessions are stateless.
	history store.ConversationStore
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// SessionID identifies the conversation thread. Empty means "default".
	SessionID string `json:"session_id"`
	// Message is the visitor's question.
	Message string `json:"message"`
}
