package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/avasant/folio-go/internal/logging"
	"github.com/avasant/folio-go/internal/server"
	"github.com/avasant/folio-go/internal/store"
	"github.com/avasant/folio-go/internal/tracing"
)

// NewServeCmd constructs the `folio serve` command, which starts the HTTP
// server exposing the agent pipeline over REST/SSE.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the folio HTTP server",
		Long: `Start the folio HTTP server on localhost.

The server exposes POST /api/chat as an SSE stream of tagged pipeline events
(orchestrator, evidence, public_persona, presentation), plus health, readiness,
and Prometheus metrics endpoints.

Examples:
  folio serve
  folio serve --port 9090
  MODEL_PROVIDER=azure folio serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			stack, err := buildRetrieval(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer stack.Close()

			coord, err := buildCoordinator(ctx, stack.Searcher, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			// Open conversation history store. FOLIO_HISTORY_DB overrides the
			// default path (~/.folio/history.db). Set to "disabled" to disable.
			var historyStore store.ConversationStore
			dbPath := os.Getenv("FOLIO_HISTORY_DB")
			if dbPath != "disabled" {
				if dbPath == "" {
					dbPath, err = store.DefaultDBPath()
					if err != nil {
						log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
					}
				}
				if dbPath != "" {
					hs, hsErr := store.Open(dbPath)
					if hsErr != nil {
						log.Warn("history: failed to open store, disabling", slog.Any("error", hsErr))
					} else {
						historyStore = hs
						defer func() { _ = hs.Close() }()
						log.Info("history: store opened", slog.String("path", dbPath))
					}
				}
			} else {
				log.Info("history: disabled via FOLIO_HISTORY_DB=disabled")
			}

			srv, err := server.New(coord, historyStore, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: buildPingers(stack),
				APIKey:  os.Getenv("FOLIO_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
