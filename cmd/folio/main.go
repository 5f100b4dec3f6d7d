// Command folio is the entry point for the folio profile assistant.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// multi-agent question-answering pipeline over REST/SSE.
package main

import (
	"fmt"
	"os"

	"github.com/avasant/folio-go/cmd/folio/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
