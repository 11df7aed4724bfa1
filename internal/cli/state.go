package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/greentrail/internal/config"
	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/questionnaire"
	"github.com/rshade/greentrail/internal/statestore"
)

// stateFlags are shared by the state subcommands.
type stateFlags struct {
	projectID   string
	participant string
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.projectID, "project-id", "", "project ID (required)")
	cmd.Flags().StringVar(&f.participant, "participant", "", "participant name")
	_ = cmd.MarkFlagRequired("project-id")
}

func (f *stateFlags) adapter() (*statestore.Adapter, error) {
	backend, err := newBackend(config.GetGlobalConfig())
	if err != nil {
		return nil, err
	}
	return statestore.NewAdapter(backend).ForParticipant(f.participant), nil
}

// NewStateShowCmd creates the state show command.
func NewStateShowCmd() *cobra.Command {
	var flags stateFlags
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show saved questionnaire progress",
		Long: `Shows the saved progress of a participant. Damaged or outdated saved
progress is discarded when read, exactly as when the questionnaire resumes.`,
		Example: `  greentrail state show --project-id summer-school --participant ada --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := flags.adapter()
			if err != nil {
				return err
			}
			state, ok := store.Load(cmd.Context(), flags.projectID)
			if !ok {
				cmd.Printf("No saved progress for %s\n", statestore.Key(flags.projectID, flags.participant))
				return nil
			}
			switch outputFormat(cmd) {
			case config.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), state)
			default:
				return renderState(cmd.OutOrStdout(), *state)
			}
		},
	}
	flags.register(cmd)
	cmd.Flags().StringP("output", "o", "", "output format: table or json (default from config)")
	return cmd
}

func renderState(w io.Writer, state questionnaire.StepState) error {
	precision := config.GetOutputPrecision()
	fmt.Fprintf(w, "Current step: %s (%d of %d)\n",
		state.CurrentStep, int(state.CurrentStep)+1, int(questionnaire.LastStep)+1)
	if c := state.ConfirmedEmissions; c != nil {
		fmt.Fprintf(w, "Confirmed footprint: %s CO2 (%d trees)\n",
			greenops.FormatKg(c.TotalCO2, precision), c.TreesNeeded)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tANSWER")
	fmt.Fprintln(tw, "-----\t------")
	for _, f := range questionnaire.Fields() {
		if v := f.Get(state.Answers); v != "" {
			fmt.Fprintf(tw, "%s\t%s\n", f, v)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}
	return nil
}

// NewStateClearCmd creates the state clear command.
func NewStateClearCmd() *cobra.Command {
	var flags stateFlags
	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Discard saved questionnaire progress",
		Example: `  greentrail state clear --project-id summer-school --participant ada`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := flags.adapter()
			if err != nil {
				return err
			}
			store.Clear(cmd.Context(), flags.projectID)
			cmd.Printf("Cleared saved progress for %s\n", statestore.Key(flags.projectID, flags.participant))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// NewStateCleanupCmd creates the state cleanup command removing expired entries.
func NewStateCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired saved progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := newBackend(config.GetGlobalConfig())
			if err != nil {
				return err
			}
			fb, ok := backend.(*statestore.FileBackend)
			if !ok {
				return errors.New("cleanup requires the file storage backend")
			}
			removed, err := fb.CleanupExpired()
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d expired entries from %s\n", removed, fb.Directory())
			return nil
		},
	}
}
