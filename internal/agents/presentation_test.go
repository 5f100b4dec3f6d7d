package agents

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	einoschema "github.com/cloudwego/eino/schema"

	"github.com/avasant/folio-go/internal/llm"
)

type fakeStreamCompleter struct {
	fragments []string
	err       error

	gotInstructions string
	gotPrompt       string
}

func (f *fakeStreamCompleter) CompleteStreaming(ctx context.Context, instructions string, messages []*einoschema.Message, effort llm.Effort) (*llm.Stream, error) {
	f.gotInstructions = instructions
	if len(messages) > 0 {
		f.gotPrompt = messages[0].Content
	}
	if f.err != nil {
		return nil, f.err
	}

	sr, sw := einoschema.Pipe[*einoschema.Message](len(f.fragments))
	go func() {
		defer sw.Close()
		for _, frag := range f.fragments {
			sw.Send(einoschema.AssistantMessage(frag, nil), nil)
		}
	}()
	return llm.NewStream(sr), nil
}

func drain(t *testing.T, s *llm.Stream) string {
	t.Helper()
	defer s.Close()
	var sb strings.Builder
	for {
		frag, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String()
		}
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		sb.WriteString(frag)
	}
}

func TestPresentStreamedConcatenationEqualsFullAnswer(t *testing.T) {
	t.Parallel()

	fake := &fakeStreamCompleter{fragments: []string{"I built ", "Project X ", "in 2024."}}
	agent := NewPresentationAgent(fake, "Ada")

	stream, err := agent.Present(context.Background(), "Tell me about Project X", &EvidenceBundle{
		CoverageAssessment: CoverageAssessment{Sufficient: true},
		Claims:             []Claim{{Documents: []string{"built Project X"}, Support: SupportRetrieved}},
	}, &RoutingDecision{})
	if err != nil {
		t.Fatalf("Present() error = %v", err)
	}

	if got := drain(t, stream); got != "I built Project X in 2024." {
		t.Errorf("concatenated answer = %q, want the full mocked output", got)
	}
}

func TestPresentationPromptRendersAbsenceSentinels(t *testing.T) {
	t.Parallel()

	prompt := buildPresentationPrompt("hello there", nil, &RoutingDecision{})

	for _, want := range []string{
		"Coverage: " + NoEvidence,
		"Claims: " + NoEvidence,
		"Project leads: " + NoEvidence,
		"Safe redirect: " + NoEvidence,
		"Refusal directed: " + NoEvidence,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing stable sentinel line %q:\n%s", want, prompt)
		}
	}
}

func TestPresentationPromptRendersEvidence(t *testing.T) {
	t.Parallel()

	evidence := &EvidenceBundle{
		CoverageAssessment:    CoverageAssessment{Sufficient: false, MissingPoints: []string{"award dates"}},
		Claims:                []Claim{{Documents: []string{"led the platform team"}, Support: SupportResume}},
		ProjectLeads:          []string{"Project X"},
		SafeRedirectIfMissing: "Happy to talk about recent work instead.",
	}
	routing := &RoutingDecision{
		DownstreamRequests: []DownstreamRequest{{TargetAgent: TargetEvidence, Task: "find awards"}},
	}

	prompt := buildPresentationPrompt("any awards?", evidence, routing)

	for _, want := range []string{
		"insufficient",
		"award dates",
		"[resume]",
		"led the platform team",
		"Project X",
		"Happy to talk about recent work instead.",
		"Task Directive",
		"find awards",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestPresentationPromptRendersRefusal(t *testing.T) {
	t.Parallel()

	routing := &RoutingDecision{
		RefusalDirective: RefusalDirective{Needed: true, Reason: "off topic", Style: DefaultRefusalStyle},
	}

	prompt := buildPresentationPrompt("write my homework", nil, routing)

	if !strings.Contains(prompt, "Refusal directed: yes") {
		t.Errorf("prompt should direct refusal:\n%s", prompt)
	}
	if !strings.Contains(prompt, "off topic") || !strings.Contains(prompt, DefaultRefusalStyle) {
		t.Errorf("prompt should carry refusal reason and style:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Claims: "+NoEvidence) {
		t.Errorf("refusal path still renders evidence sentinels:\n%s", prompt)
	}
}

func TestPresentPropagatesCompletionFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeStreamCompleter{err: errors.New("model unavailable")}
	agent := NewPresentationAgent(fake, "Ada")

	if _, err := agent.Present(context.Background(), "hi", nil, &RoutingDecision{}); err == nil {
		t.Error("Present() error = nil, want completion failure")
	}
}
