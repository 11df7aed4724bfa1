package cli

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/greentrail/internal/config"
	"github.com/rshade/greentrail/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the greentrail CLI. It loads
// .env files and configuration, wires up logging and tracing, and registers
// the subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "greentrail",
		Short:         "Event participant carbon footprint calculator",
		Long:          "greentrail: estimate the CO2 footprint of attending an event and collect it with a step-by-step questionnaire",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.LoadDotEnv(); err != nil {
				cmd.PrintErrf("Warning: could not load .env file: %v\n", err)
			}

			if err := loadConfig(cmd); err != nil {
				return err
			}

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
				if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
					logger.Warn().Err(err).Str("path", path).Msg("could not write metrics file")
				}
			}
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "configuration file (default $GREENTRAIL_HOME/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "",
		"directory holding a project-local .greentrail/config.yaml overlay")
	cmd.PersistentFlags().String("metrics-file", "",
		"write Prometheus metrics in text format to this file when the command ends")

	cmd.AddCommand(
		NewCalculateCmd(),
		NewQuestionnaireCmd(),
		newStateCmd(),
		NewFactorsCmd(),
		newProjectsCmd(),
		newConfigCmd(),
	)
	return cmd
}

// loadConfig resolves the configuration for this run and installs it as the
// global configuration. --config wins over the global file and the project
// overlay.
func loadConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()

	flagDir, _ := cmd.Flags().GetString("project-dir")
	wd, _ := os.Getwd()
	projectDir := config.ResolveProjectDir(ctx, flagDir, wd)
	config.SetResolvedProjectDir(projectDir)

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		config.SetGlobalConfig(cfg)
		return nil
	}

	cfg := config.NewWithProjectDir(ctx, projectDir)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	config.SetGlobalConfig(cfg)
	return nil
}

const rootCmdExample = `  # Start the questionnaire for a project
  greentrail questionnaire --project event.yaml --participant ada

  # Compute footprints for answer files
  greentrail calculate --answers ada.yaml --answers bob.yaml --project event.yaml

  # Show the saved progress of a participant
  greentrail state show --project-id summer-school --participant ada

  # Print the emission factor table
  greentrail factors

  # Initialize configuration
  greentrail config init`

// newStateCmd creates the state command group for saved questionnaire progress.
func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "state", Short: "Saved questionnaire progress"}
	cmd.AddCommand(NewStateShowCmd(), NewStateClearCmd(), NewStateCleanupCmd())
	return cmd
}

// newProjectsCmd creates the projects command group.
func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "projects", Short: "Project records"}
	cmd.AddCommand(NewProjectsListCmd())
	return cmd
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}
