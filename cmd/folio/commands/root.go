// Package commands defines all Cobra CLI commands for the folio binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/avasant/folio-go/internal/audit"
	"github.com/avasant/folio-go/internal/config"
	"github.com/avasant/folio-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "folio",
		Short: "folio — a professional-profile assistant powered by LLM agents",
		Long: `folio is an AI assistant that answers visitor questions about one person's
professional background: career history, projects, skills, education, and
public work.

Questions are routed by an orchestrator agent, grounded by an evidence agent
with access to the subject's resume, bio, project corpus, and GitHub, and
answered first-person by a streaming presentation agent.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.folio/config.yaml).
See 'folio --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.folio/config.yaml)")

	root.AddCommand(
		NewChatCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}
