// Package server implements the HTTP server that exposes the folio agent
// pipeline via a REST/SSE API. The server is started by the `folio serve`
// CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avasant/folio-go/internal/budget"
	"github.com/avasant/folio-go/internal/logging"
	"github.com/avasant/folio-go/internal/pipeline"
	"github.com/avasant/folio-go/internal/store"
)

// defaultHistoryWindow is the number of prior messages loaded per session
// when Config.HistoryWindow is zero.
const defaultHistoryWindow = 20

// New constructs a Server from the provided pipeline processor, conversation
// store (nil for stateless sessions), and config.
func New(p processor, history store.ConversationStore, cfg *Config) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("server: processor must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must be long enough for streaming responses.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ChatTimeout == 0 {
		cfg.ChatTimeout = 5 * time.Minute
	}
	if cfg.HistoryWindow == 0 {
		cfg.HistoryWindow = defaultHistoryWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		processor: p,
		history:   history,
		cfg:       cfg,
		log:       cfg.Logger,
		pingers:   cfg.Pingers,
		metrics:   newServerMetrics(cfg.MetricsRegistry),
	}

	if cfg.APIKey == "" {
		s.log.Warn("server: FOLIO_API_KEY not set — API authentication is disabled")
	}

	rps := cfg.RateLimit
	if rps == 0 {
		rps = defaultRateLimit
	}
	burst := cfg.RateBurst
	if burst == 0 {
		burst = defaultRateBurst
	}
	rl, stopRL := newRateLimiter(rps, burst, s.log)
	s.stopRL = stopRL

	// /api/chat gets the full chain: logging → metrics → auth → rate limit.
	chat := s.instrument("chat", rl.middleware(authMiddleware(cfg.APIKey, http.HandlerFunc(s.handleChat))))

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", chat)
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleChat handles POST /api/chat. It runs the query through the pipeline
// and streams the tagged stage events using Server-Sent Events so the client
// can render the routing decision, evidence, and answer tokens as they arrive.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers so the client receives a streaming response.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ChatTimeout)
	defer cancel()

	log := logging.FromContext(ctx)

	s.metrics.chatActiveStreams.Inc()
	defer s.metrics.chatActiveStreams.Dec()
	start := time.Now()

	conv, err := s.loadConversation(ctx, req.SessionID, req.Message)
	if err != nil {
		// History is context, not a hard dependency. Proceed stateless.
		log.Warn("chat: history load failed", slog.Any("error", err))
		conv = pipeline.NewConversation()
	}

	emit := func(ev pipeline.Event) {
		writeSSE(w, flusher, string(ev.Source), ev.Payload)
	}

	answer, err := s.processor.Process(ctx, req.Message, conv, emit)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.chatDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		log.Error("chat: pipeline failed", slog.Any("error", err))
		writeSSE(w, flusher, "error", err.Error())
		return
	}

	s.persistTurn(ctx, req.SessionID, req.Message, answer)

	s.metrics.chatRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.chatDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	// Signal stream completion.
	writeSSE(w, flusher, "done", "[DONE]")
}

// loadConversation rebuilds the session transcript from the store, trimmed to
// the configured window and the token budget. A nil store yields an empty
// transcript.
func (s *Server) loadConversation(ctx context.Context, sessionID, query string) (*pipeline.Conversation, error) {
	if s.history == nil {
		return pipeline.NewConversation(), nil
	}

	msgs, err := s.history.Recent(ctx, sessionID, s.cfg.HistoryWindow)
	if err != nil {
		return nil, err
	}

	// Trim oldest-first so prior turns plus the new query fit the context budget.
	hist := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == store.RoleAssistant {
			hist = append(hist, schema.AssistantMessage(m.Content, nil))
		} else {
			hist = append(hist, schema.UserMessage(m.Content))
		}
	}
	fixed := []*schema.Message{schema.UserMessage(query)}
	trimmed := budget.TrimHistory(fixed, hist, budget.DefaultMaxContextTokens)

	// TrimHistory drops from the front, so the kept messages are the tail.
	kept := msgs[len(msgs)-len(trimmed):]
	turns := make([]pipeline.Turn, 0, len(kept))
	for _, m := range kept {
		role := pipeline.RoleUser
		if m.Role == store.RoleAssistant {
			role = pipeline.RoleAssistant
		}
		turns = append(turns, pipeline.Turn{Role: role, Content: m.Content})
	}
	return pipeline.NewConversation(turns...), nil
}

// persistTurn records the user question and the final answer for the session.
// Blank queries produce the canned prompt and are not persisted.
func (s *Server) persistTurn(ctx context.Context, sessionID, query, answer string) {
	if s.history == nil || strings.TrimSpace(query) == "" {
		return
	}
	log := logging.FromContext(ctx)
	if err := s.history.Append(ctx, sessionID, store.RoleUser, query); err != nil {
		log.Warn("chat: persist user turn failed", slog.Any("error", err))
		return
	}
	if err := s.history.Append(ctx, sessionID, store.RoleAssistant, answer); err != nil {
		log.Warn("chat: persist assistant turn failed", slog.Any("error", err))
	}
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeSSE emits one SSE frame with the given event name. Each newline in
// data is prefixed with "data: " so multi-line payloads never break the SSE
// frame boundary.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, event, data string) {
	chunk := strings.TrimRight(data, "\n")
	lines := strings.Split(chunk, "\n")

	var buf strings.Builder
	buf.WriteString("event: ")
	buf.WriteString(event)
	buf.WriteString("\n")
	for _, line := range lines {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	buf.WriteString("\n")

	if _, err := fmt.Fprint(w, buf.String()); err != nil {
		return
	}
	flusher.Flush()
}
