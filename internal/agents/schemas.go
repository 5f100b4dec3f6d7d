package agents

import "github.com/avasant/folio-go/internal/llm"

// Output schemas for the structured agents. Compiled at load time; a schema
// that does not compile panics before the first query is served.

var routingSchema = llm.MustSchema("routing_decision", `{
  "type": "object",
  "properties": {
    "reinterpretation": {
      "type": "object",
      "properties": {
        "needed": {"type": "boolean"},
        "rewritten_question": {"type": "string"}
      },
      "required": ["needed"],
      "additionalProperties": false
    },
    "downstream_requests": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "target_agent": {"type": "string", "enum": ["evidence", "public_persona"]},
          "task": {"type": "string", "minLength": 1},
          "constraints": {"type": "string"}
        },
        "required": ["target_agent", "task"],
        "additionalProperties": false
      }
    },
    "refusal_directive": {
      "type": "object",
      "properties": {
        "needed": {"type": "boolean"},
        "reason": {"type": "string"},
        "style": {"type": "string"}
      },
      "required": ["needed"],
      "additionalProperties": false
    }
  },
  "required": ["reinterpretation", "downstream_requests", "refusal_directive"],
  "additionalProperties": false
}`)

var evidenceSchema = llm.MustSchema("evidence_bundle", `{
  "type": "object",
  "properties": {
    "coverage_assessment": {
      "type": "object",
      "properties": {
        "sufficient": {"type": "boolean"},
        "missing_points": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["sufficient"],
      "additionalProperties": false
    },
    "claims": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "documents": {
            "type": "array",
            "items": {"type": "string"},
            "minItems": 1
          },
          "support": {
            "type": "string",
            "enum": ["resume", "old_resume", "about_subject", "external_profile", "retrieved"]
          }
        },
        "required": ["documents", "support"],
        "additionalProperties": false
      }
    },
    "project_leads": {"type": "array", "items": {"type": "string"}},
    "safe_redirect_if_missing": {"type": "string"}
  },
  "required": ["coverage_assessment", "claims"],
  "additionalProperties": false
}`)
