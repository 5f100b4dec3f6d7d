// Package tracing wires the Langfuse observability callback into the Eino
// runtime. Every model call, tool invocation, and agent step is exported as a
// span/generation on the Langfuse side once the handler is registered as a
// global Eino callback. Tracing is strictly opt-in: when the keys are absent
// the pipeline runs with no handler and every trace call is a no-op.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// Setup initialises the Langfuse callback handler if LANGFUSE_PUBLIC_KEY and
// LANGFUSE_SECRET_KEY are set. Returns a flush function that must be called
// before process exit so buffered traces are sent. If Langfuse is not
// configured, both return values are nil and tracing is silently disabled —
// absence of a trace sink must never be an error.
func Setup() (callbacks.Handler, func(), bool) {
	host := os.Getenv("LANGFUSE_HOST")
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")

	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}
	if host == "" {
		host = "http://localhost:3000"
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
	})

	return handler, flusher, true
}
