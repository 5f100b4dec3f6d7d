package commands

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/avasant/folio-go/internal/logging"
	"github.com/avasant/folio-go/internal/pipeline"
	"github.com/avasant/folio-go/internal/tracing"
)

// NewChatCmd constructs the `folio chat` command. With a question argument it
// answers once and exits; without one it starts an interactive session that
// keeps the conversation transcript across turns.
func NewChatCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the profile assistant a question",
		Long: `Ask the assistant a question about the subject's professional background.

The answer streams to stdout as it is generated. With --verbose, the routing
decision and gathered evidence are printed to stderr as they happen.

Examples:
  folio chat "where did you study?"
  folio chat "tell me about the supply-chain project"
  folio chat            # interactive session`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Langfuse tracing — opt-in, no-op if keys are absent.
			if handler, flush, ok := tracing.Setup(); ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			stack, err := buildRetrieval(ctx, log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer stack.Close()

			coord, err := buildCoordinator(ctx, stack.Searcher, log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			emit := func(ev pipeline.Event) {
				switch ev.Source {
				case pipeline.SourcePresentation:
					fmt.Print(ev.Payload)
				default:
					if verbose {
						fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Source, ev.Payload)
					}
				}
			}

			conv := pipeline.NewConversation()

			if len(args) == 1 {
				if _, err := coord.Process(ctx, args[0], conv, emit); err != nil {
					return fmt.Errorf("chat: %w", err)
				}
				fmt.Println()
				return nil
			}

			// Interactive session — one transcript for the whole sitting.
			fmt.Println("folio interactive session. Type a question, or Ctrl-D to exit.")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				if ctx.Err() != nil {
					return nil
				}
				question := strings.TrimSpace(scanner.Text())
				if _, err := coord.Process(ctx, question, conv, emit); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Println()
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print routing and evidence events to stderr")

	return cmd
}
