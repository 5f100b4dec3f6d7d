// Package agents implements the four pipeline agents: routing, evidence
// gathering, public-persona gathering, and presentation. Each agent owns its
// instructions and output schema and depends only on the small completion
// interfaces it needs, so tests can substitute canned model behavior.
package agents

import (
	"fmt"
	"strings"
)

// TargetAgent names a downstream agent a routing decision can dispatch to.
type TargetAgent string

const (
	// TargetEvidence dispatches to the profile evidence agent.
	TargetEvidence TargetAgent = "evidence"
	// TargetPublicPersona dispatches to the public-persona agent.
	TargetPublicPersona TargetAgent = "public_persona"
)

// Support tags a set of evidence documents with the tool that produced them.
type Support string

const (
	SupportResume          Support = "resume"
	SupportOldResume       Support = "old_resume"
	SupportAboutSubject    Support = "about_subject"
	SupportExternalProfile Support = "external_profile"
	SupportRetrieved       Support = "retrieved"
)

// Reinterpretation records whether the routing agent rewrote the question.
type Reinterpretation struct {
	Needed            bool   `json:"needed"`
	RewrittenQuestion string `json:"rewritten_question,omitempty"`
}

// DownstreamRequest is one dispatch order produced by routing. Order in the
// decision is dispatch order.
type DownstreamRequest struct {
	TargetAgent TargetAgent `json:"target_agent"`
	Task        string      `json:"task"`
	Constraints string      `json:"constraints,omitempty"`
}

// RefusalDirective asks presentation to decline the question.
type RefusalDirective struct {
	Needed bool   `json:"needed"`
	Reason string `json:"reason,omitempty"`
	Style  string `json:"style"`
}

// DefaultRefusalStyle is applied when the model leaves the style blank.
const DefaultRefusalStyle = "polite and humorous with redirect"

// RoutingDecision is the structured output of one routing call.
type RoutingDecision struct {
	Reinterpretation   Reinterpretation    `json:"reinterpretation"`
	DownstreamRequests []DownstreamRequest `json:"downstream_requests"`
	RefusalDirective   RefusalDirective    `json:"refusal_directive"`
}

// Normalize fills defaulted fields the schema leaves optional.
func (d *RoutingDecision) Normalize() {
	if d.RefusalDirective.Style == "" {
		d.RefusalDirective.Style = DefaultRefusalStyle
	}
}

// RequestsFor returns the downstream requests targeting the given agent, in
// dispatch order.
func (d *RoutingDecision) RequestsFor(target TargetAgent) []DownstreamRequest {
	var out []DownstreamRequest
	for _, req := range d.DownstreamRequests {
		if req.TargetAgent == target {
			out = append(out, req)
		}
	}
	return out
}

// Anomalous reports the policy violation worth logging: a refusal directive
// combined with downstream dispatch. Not a hard failure.
func (d *RoutingDecision) Anomalous() bool {
	return d.RefusalDirective.Needed && len(d.DownstreamRequests) > 0
}

// Digest renders the decision as a short agent-visible summary for the
// conversation transcript. Raw JSON would bloat subsequent-turn context.
func (d *RoutingDecision) Digest() string {
	var sb strings.Builder
	sb.WriteString("[routing]")
	if d.Reinterpretation.Needed && d.Reinterpretation.RewrittenQuestion != "" {
		fmt.Fprintf(&sb, " reinterpreted as: %s;", d.Reinterpretation.RewrittenQuestion)
	}
	for _, req := range d.DownstreamRequests {
		fmt.Fprintf(&sb, " dispatched %s: %s;", req.TargetAgent, req.Task)
	}
	if d.RefusalDirective.Needed {
		fmt.Fprintf(&sb, " refusal requested (%s);", d.RefusalDirective.Reason)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// CoverageAssessment is the evidence agent's self-report on whether the
// gathered material answers the task.
type CoverageAssessment struct {
	Sufficient    bool     `json:"sufficient"`
	MissingPoints []string `json:"missing_points,omitempty"`
}

// Claim traces a set of raw text snippets back to the tool that produced
// them.
type Claim struct {
	Documents []string `json:"documents"`
	Support   Support  `json:"support"`
}

// EvidenceBundle is the structured output of one evidence-gathering call.
// The public-persona agent produces the same shape over its own toolbox.
type EvidenceBundle struct {
	CoverageAssessment    CoverageAssessment `json:"coverage_assessment"`
	Claims                []Claim            `json:"claims"`
	ProjectLeads          []string           `json:"project_leads,omitempty"`
	SafeRedirectIfMissing string             `json:"safe_redirect_if_missing,omitempty"`
}
