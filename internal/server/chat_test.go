package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avasant/folio-go/internal/pipeline"
	"github.com/avasant/folio-go/internal/store"
)

// ---------------------------------------------------------------------------
// Fakes for chat handler tests
// ---------------------------------------------------------------------------

// fakeProcessor implements the processor interface for tests. It emits a
// fixed event sequence and returns configurable values.
type fakeProcessor struct {
	// events are emitted in order on each Process call.
	events []pipeline.Event
	// answer is returned as the final answer.
	answer string
	// err is returned as the error value.
	err error
	// gotQuery records the query passed to Process.
	gotQuery string
	// gotTurns records the transcript length seen by Process.
	gotTurns int
}

func (f *fakeProcessor) Process(_ context.Context, query string, conv *pipeline.Conversation, emit pipeline.EventSink) (string, error) {
	f.gotQuery = query
	f.gotTurns = conv.Len()
	if f.err != nil {
		return "", f.err
	}
	for _, ev := range f.events {
		emit(ev)
	}
	return f.answer, nil
}

// memStore is an in-memory ConversationStore for tests.
type memStore struct {
	msgs map[string][]store.Message
}

func newMemStore() *memStore {
	return &memStore{msgs: make(map[string][]store.Message)}
}

func (m *memStore) Append(_ context.Context, sessionID string, role store.Role, content string) error {
	m.msgs[sessionID] = append(m.msgs[sessionID], store.Message{Role: role, Content: content, CreatedAt: time.Now()})
	return nil
}

func (m *memStore) Recent(_ context.Context, sessionID string, n int) ([]store.Message, error) {
	all := m.msgs[sessionID]
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (m *memStore) Close() error { return nil }

// newTestServer builds a minimal *Server suitable for direct handler calls.
func newTestServer() *Server {
	return newChatTestServer(&fakeProcessor{}, nil)
}

// newChatTestServer builds a *Server wired with the given processor fake and
// optional history store.
func newChatTestServer(p processor, history store.ConversationStore) *Server {
	return &Server{
		processor: p,
		history:   history,
		cfg: &Config{
			ChatTimeout:   time.Minute,
			HistoryWindow: defaultHistoryWindow,
		},
		log:     slog.Default(),
		metrics: newServerMetrics(prometheus.NewRegistry()),
	}
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handleChat(w, req)
	return w
}

// ---------------------------------------------------------------------------
// POST /api/chat — validation
// ---------------------------------------------------------------------------

func TestHandleChat_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := newChatTestServer(&fakeProcessor{}, nil)
	w := postChat(t, s, `not-json`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// TestHandleChat_BlankMessage verifies that a blank message is not rejected —
// the pipeline answers it with its canned prompt-for-input, delivered in-band.
func TestHandleChat_BlankMessage(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{
		events: []pipeline.Event{{Source: pipeline.SourcePresentation, Payload: pipeline.BlankQueryResponse}},
		answer: pipeline.BlankQueryResponse,
	}
	s := newChatTestServer(p, nil)
	w := postChat(t, s, `{"message":""}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if p.gotQuery != "" {
		t.Errorf("expected blank query to reach the pipeline, got %q", p.gotQuery)
	}
	if !strings.Contains(w.Body.String(), "event: done") {
		t.Errorf("expected done event, got: %s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// POST /api/chat — SSE event relay
// ---------------------------------------------------------------------------

// TestHandleChat_Success verifies that pipeline events are relayed as SSE
// frames tagged with their source, followed by a done event.
func TestHandleChat_Success(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{
		events: []pipeline.Event{
			{Source: pipeline.SourceOrchestrator, Payload: `{"reinterpretation":{"needed":false}}`},
			{Source: pipeline.SourceEvidence, Payload: `{"claims":[]}`},
			{Source: pipeline.SourcePresentation, Payload: "She worked"},
			{Source: pipeline.SourcePresentation, Payload: " at Acme."},
		},
		answer: "She worked at Acme.",
	}
	s := newChatTestServer(p, nil)
	w := postChat(t, s, `{"session_id":"s1","message":"where did she work?"}`)

	body := w.Body.String()

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type: expected text/event-stream, got %q", ct)
	}
	for _, want := range []string{
		"event: orchestrator",
		"event: evidence",
		"event: presentation",
		"data: She worked",
		"event: done",
		"data: [DONE]",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in SSE body, got: %s", want, body)
		}
	}
	if p.gotQuery != "where did she work?" {
		t.Errorf("processor saw query %q", p.gotQuery)
	}
}

// TestHandleChat_EventOrder verifies orchestrator events precede presentation
// events in the SSE stream.
func TestHandleChat_EventOrder(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{
		events: []pipeline.Event{
			{Source: pipeline.SourceOrchestrator, Payload: `{}`},
			{Source: pipeline.SourcePresentation, Payload: "hi"},
		},
		answer: "hi",
	}
	s := newChatTestServer(p, nil)
	w := postChat(t, s, `{"message":"hello"}`)

	body := w.Body.String()
	orch := strings.Index(body, "event: orchestrator")
	pres := strings.Index(body, "event: presentation")
	if orch == -1 || pres == -1 || orch > pres {
		t.Errorf("expected orchestrator before presentation, got: %s", body)
	}
}

// TestHandleChat_PipelineError verifies that pipeline failures are delivered
// as an in-band SSE error event (the response is already streaming, so the
// HTTP status stays 200) and no done event follows.
func TestHandleChat_PipelineError(t *testing.T) {
	t.Parallel()

	p := &fakeProcessor{err: fmt.Errorf("routing produced no parsable decision")}
	s := newChatTestServer(p, nil)
	w := postChat(t, s, `{"message":"hi"}`)

	body := w.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("expected error event in body, got: %s", body)
	}
	if !strings.Contains(body, "routing produced no parsable decision") {
		t.Errorf("expected error message in body, got: %s", body)
	}
	if strings.Contains(body, "event: done") {
		t.Errorf("did not expect done event after error, got: %s", body)
	}
}

// ---------------------------------------------------------------------------
// POST /api/chat — session history
// ---------------------------------------------------------------------------

// TestHandleChat_HistoryLoadedAndPersisted verifies that prior session turns
// are loaded into the transcript and the new exchange is persisted.
func TestHandleChat_HistoryLoadedAndPersisted(t *testing.T) {
	t.Parallel()

	hist := newMemStore()
	ctx := context.Background()
	_ = hist.Append(ctx, "s1", store.RoleUser, "earlier question")
	_ = hist.Append(ctx, "s1", store.RoleAssistant, "earlier answer")

	p := &fakeProcessor{
		events: []pipeline.Event{{Source: pipeline.SourcePresentation, Payload: "new answer"}},
		answer: "new answer",
	}
	s := newChatTestServer(p, hist)
	postChat(t, s, `{"session_id":"s1","message":"follow-up"}`)

	if p.gotTurns != 2 {
		t.Errorf("expected 2 prior turns in transcript, got %d", p.gotTurns)
	}

	msgs, _ := hist.Recent(ctx, "s1", 10)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 persisted messages, got %d", len(msgs))
	}
	if msgs[2].Role != store.RoleUser || msgs[2].Content != "follow-up" {
		t.Errorf("msg[2]: want user/follow-up, got %s/%s", msgs[2].Role, msgs[2].Content)
	}
	if msgs[3].Role != store.RoleAssistant || msgs[3].Content != "new answer" {
		t.Errorf("msg[3]: want assistant/new answer, got %s/%s", msgs[3].Role, msgs[3].Content)
	}
}

// TestHandleChat_BlankQueryNotPersisted verifies blank queries leave the
// session history untouched.
func TestHandleChat_BlankQueryNotPersisted(t *testing.T) {
	t.Parallel()

	hist := newMemStore()
	p := &fakeProcessor{answer: pipeline.BlankQueryResponse}
	s := newChatTestServer(p, hist)
	postChat(t, s, `{"session_id":"s1","message":"   "}`)

	msgs, _ := hist.Recent(context.Background(), "s1", 10)
	if len(msgs) != 0 {
		t.Errorf("expected no persisted messages for blank query, got %d", len(msgs))
	}
}

// TestHandleChat_SessionIsolation verifies distinct session IDs keep separate
// transcripts.
func TestHandleChat_SessionIsolation(t *testing.T) {
	t.Parallel()

	hist := newMemStore()
	p := &fakeProcessor{answer: "a"}
	s := newChatTestServer(p, hist)

	postChat(t, s, `{"session_id":"alpha","message":"q1"}`)
	postChat(t, s, `{"session_id":"beta","message":"q2"}`)

	alpha, _ := hist.Recent(context.Background(), "alpha", 10)
	beta, _ := hist.Recent(context.Background(), "beta", 10)
	if len(alpha) != 2 || len(beta) != 2 {
		t.Errorf("expected 2 messages per session, got alpha=%d beta=%d", len(alpha), len(beta))
	}
	if alpha[0].Content != "q1" || beta[0].Content != "q2" {
		t.Errorf("session transcripts crossed: alpha[0]=%q beta[0]=%q", alpha[0].Content, beta[0].Content)
	}
}

// ---------------------------------------------------------------------------
// SSE framing
// ---------------------------------------------------------------------------

// TestWriteSSE_MultilinePayload verifies each payload line gets its own
// data: prefix so newlines never break the frame boundary.
func TestWriteSSE_MultilinePayload(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeSSE(w, w, "presentation", "line one\nline two\n")

	got := w.Body.String()
	want := "event: presentation\ndata: line one\ndata: line two\n\n"
	if got != want {
		t.Errorf("frame mismatch:\n got: %q\nwant: %q", got, want)
	}
}
