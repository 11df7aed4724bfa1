package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/greentrail/internal/config"
	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/projects"
	"github.com/rshade/greentrail/internal/questionnaire"
	"github.com/rshade/greentrail/internal/session"
	"github.com/rshade/greentrail/internal/statestore"
	"github.com/rshade/greentrail/internal/tui"
)

// NewQuestionnaireCmd creates the questionnaire command that collects one
// participant's answers and submits their footprint.
func NewQuestionnaireCmd() *cobra.Command {
	var (
		projectFile string
		projectID   string
		participant string
		factorsFile string
		plain       bool
	)

	cmd := &cobra.Command{
		Use:   "questionnaire",
		Short: "Answer the footprint questionnaire for a project",
		Long: `Walks a participant through the footprint questionnaire.

Progress is saved after every answer, so an interrupted questionnaire resumes
where it stopped. On a terminal the interactive interface is used; with piped
input, or with --plain, questions are asked one line at a time.`,
		Example: `  # Interactive questionnaire
  greentrail questionnaire --project event.yaml --participant ada

  # Line-by-line answers from a file
  greentrail questionnaire --project event.yaml --participant ada --plain < answers.txt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.GetGlobalConfig()

			id, err := resolveProjectID(projectFile, projectID)
			if err != nil {
				return err
			}
			calc, err := newCalculator(cfg, factorsFile)
			if err != nil {
				return err
			}
			backend, err := newBackend(cfg)
			if err != nil {
				return err
			}

			mgr := session.NewManager(
				newProvider(cfg, projectFiles(projectFile)...),
				calc,
				statestore.NewAdapter(backend),
				newSink(ctx, cfg, calc),
			)
			key := session.Key{ProjectID: id, Participant: participant}
			if _, err = mgr.Open(ctx, key); err != nil {
				return err
			}
			defer mgr.Close(ctx, key)

			run := func(ctx context.Context, fn func(c *questionnaire.Controller) error) error {
				return mgr.Do(ctx, key, fn)
			}

			precision := config.GetOutputPrecision()
			if !plain && tui.IsTTY() {
				return runQuestionnaireTUI(ctx, run, calc, precision)
			}
			_, err = RunLinePrompt(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), run, calc, precision)
			return err
		},
	}

	cmd.Flags().StringVar(&projectFile, "project", "", "project file (default: configured project files)")
	cmd.Flags().StringVar(&projectID, "id", "", "project ID when the project file holds several projects")
	cmd.Flags().StringVar(&participant, "participant", "", "participant name, keeps separate progress per participant")
	cmd.Flags().StringVar(&factorsFile, "factors", "", "YAML emission factor table (default: configured or built-in)")
	cmd.Flags().BoolVar(&plain, "plain", false, "ask questions line by line even on a terminal")

	return cmd
}

// resolveProjectID returns id, or the ID of the only project in file.
func resolveProjectID(file, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if file == "" {
		return "", errors.New("either --project or --id is required")
	}
	list, err := projects.LoadFile(file)
	if err != nil {
		return "", err
	}
	if len(list) != 1 {
		return "", fmt.Errorf("%s holds %d projects, select one with --id", file, len(list))
	}
	return list[0].ID, nil
}

func projectFiles(file string) []string {
	if file == "" || !fileExists(file) {
		return nil
	}
	return []string{file}
}

func runQuestionnaireTUI(ctx context.Context, run tui.Runner, calc *greenops.Calculator, precision int) error {
	model := tui.NewQuestionnaireModel(ctx, run, calc, precision)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stdout))

	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("running interactive TUI: %w", err)
	}

	qModel, ok := finalModel.(*tui.QuestionnaireModel)
	if !ok {
		return fmt.Errorf("unexpected model type: %T, expected *tui.QuestionnaireModel", finalModel)
	}
	return finishTUI(os.Stdout, qModel)
}

// finishTUI reports how an interactive run ended. A run that ends after the
// sink rejected the answers returns that failure.
func finishTUI(w io.Writer, m *tui.QuestionnaireModel) error {
	if m.Submission() != nil {
		return nil
	}
	fmt.Fprintln(w, "Your progress has been saved.")
	if err := m.SubmissionErr(); err != nil {
		return fmt.Errorf("answers were not submitted: %w", err)
	}
	return nil
}
