package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/greentrail/internal/batch"
	"github.com/rshade/greentrail/internal/cli/pagination"
	"github.com/rshade/greentrail/internal/config"
	"github.com/rshade/greentrail/internal/greenops"
	"github.com/rshade/greentrail/internal/projects"
	"github.com/rshade/greentrail/internal/questionnaire"
)

// calculateConcurrency bounds how many batches of answer files are read at once.
const calculateConcurrency = 4

const tabPadding = 2

// CalculationRow is the footprint computed for one answer file.
type CalculationRow struct {
	File       string                   `json:"file"`
	Emissions  greenops.EmissionsResult `json:"emissions"`
	Equivalent string                   `json:"equivalent,omitempty"`
}

// NewCalculateCmd creates the calculate command that computes footprints for
// answer files without running the questionnaire.
func NewCalculateCmd() *cobra.Command {
	var (
		answerFiles []string
		projectFile string
		projectID   string
		factorsFile string
		batchSize   int
		sortExpr    string
		page        pagination.Params
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Compute footprints for answer files",
		Long: `Computes the CO2 footprint for one or more YAML answer files.

An answer file uses the questionnaire field names in snake case, for example:

  days: 3
  accommodation_category: hotel
  room_occupancy: alone
  train_km: 300

With --project, the project's activities are added to every footprint and the
stay length defaults to the project duration.`,
		Example: `  # Footprint of one participant
  greentrail calculate --answers ada.yaml

  # Several participants of a project, as JSON
  greentrail calculate --answers ada.yaml --answers bob.yaml --project event.yaml --output json

  # The three largest footprints
  greentrail calculate --answers a.yaml --answers b.yaml --answers c.yaml --answers d.yaml --sort total:desc --limit 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(answerFiles) == 0 {
				return errors.New("at least one --answers file is required")
			}
			cfg := config.GetGlobalConfig()
			calc, err := newCalculator(cfg, factorsFile)
			if err != nil {
				return err
			}

			var project *questionnaire.Project
			if projectFile != "" {
				p, loadErr := loadProject(cmd.Context(), cfg, projectFile, projectID)
				if loadErr != nil {
					return loadErr
				}
				project = &p
			}

			rows, err := calculateFiles(cmd.Context(), calc, project, answerFiles, batchSize)
			if err != nil {
				return err
			}
			if page.SortField, page.SortOrder, err = pagination.ParseSort(sortExpr); err != nil {
				return err
			}
			if rows, err = calculationSorter().Page(rows, page); err != nil {
				return err
			}
			return renderCalculation(cmd.OutOrStdout(), outputFormat(cmd), rows)
		},
	}

	cmd.Flags().StringArrayVar(&answerFiles, "answers", nil, "YAML answer file (repeatable)")
	cmd.Flags().StringVar(&projectFile, "project", "", "project file whose activities and dates apply")
	cmd.Flags().StringVar(&projectID, "id", "", "project ID when the project file holds several projects")
	cmd.Flags().StringVar(&factorsFile, "factors", "", "YAML emission factor table (default: configured or built-in)")
	cmd.Flags().IntVar(&batchSize, "batch-size", batch.DefaultBatchSize, "answer files per batch")
	cmd.Flags().StringVar(&sortExpr, "sort", "",
		"sort rows by field[:asc|desc]: file, transport, accommodation, food, activities or total")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "print at most this many rows (0 prints all)")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "skip this many rows")
	cmd.Flags().StringP("output", "o", "", "output format: table or json (default from config)")

	return cmd
}

// calculationSorter sorts footprint rows by file name or by an emissions category.
func calculationSorter() *pagination.Sorter[CalculationRow] {
	byKg := func(get func(e greenops.EmissionsResult) float64) func(a, b CalculationRow) int {
		return func(a, b CalculationRow) int { return cmp.Compare(get(a.Emissions), get(b.Emissions)) }
	}
	return pagination.NewSorter(map[string]func(a, b CalculationRow) int{
		"file":          func(a, b CalculationRow) int { return cmp.Compare(a.File, b.File) },
		"transport":     byKg(func(e greenops.EmissionsResult) float64 { return e.TransportCO2 }),
		"accommodation": byKg(func(e greenops.EmissionsResult) float64 { return e.AccommodationCO2 }),
		"food":          byKg(func(e greenops.EmissionsResult) float64 { return e.FoodCO2 }),
		"activities":    byKg(func(e greenops.EmissionsResult) float64 { return e.ProjectActivitiesCO2 }),
		"total":         byKg(func(e greenops.EmissionsResult) float64 { return e.TotalCO2 }),
	})
}

// loadProject returns project id from file, or its only project when id is empty.
func loadProject(ctx context.Context, cfg *config.Config, file, id string) (questionnaire.Project, error) {
	if id != "" {
		return newProvider(cfg, file).Get(ctx, id)
	}
	list, err := projects.LoadFile(file)
	if err != nil {
		return questionnaire.Project{}, err
	}
	if len(list) != 1 {
		return questionnaire.Project{}, fmt.Errorf("%s holds %d projects, select one with --id", file, len(list))
	}
	return list[0], nil
}

// calculateFiles reads and evaluates the answer files in batches. Rows keep
// the order of files.
func calculateFiles(
	ctx context.Context,
	calc *greenops.Calculator,
	project *questionnaire.Project,
	files []string,
	batchSize int,
) ([]CalculationRow, error) {
	proc, err := batch.NewProcessor[string](batchSize)
	if err != nil {
		return nil, err
	}
	proc.WithProgress(func(s batch.Snapshot) {
		logger.Debug().Ctx(ctx).
			Str("operation", "calculate").
			Int("processed", s.ProcessedItems).
			Int("total", s.TotalItems).
			Msg("answer files processed")
	})

	var activities []greenops.ProjectActivity
	if project != nil {
		activities = project.Activities
	}

	rows := make([]CalculationRow, len(files))
	err = proc.ProcessConcurrent(ctx, files, func(_ context.Context, chunk []string, offset int) error {
		var errs []error
		for i, file := range chunk {
			answers, readErr := readAnswers(file, project)
			if readErr != nil {
				errs = append(errs, readErr)
				continue
			}
			result := calc.CalculateEmissions(answers, activities)
			rows[offset+i] = CalculationRow{
				File:       file,
				Emissions:  result,
				Equivalent: calc.Equivalencies(result.TotalCO2).DisplayText,
			}
		}
		return errors.Join(errs...)
	}, calculateConcurrency)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// readAnswers decodes an answer file. Values outside a field's options are
// dropped as unanswered, and a missing stay length defaults to the project's.
func readAnswers(path string, project *questionnaire.Project) (greenops.Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return greenops.Answers{}, fmt.Errorf("reading answer file: %w", err)
	}
	var answers greenops.Answers
	if err = yaml.Unmarshal(data, &answers); err != nil {
		return greenops.Answers{}, fmt.Errorf("parsing answer file %s: %w", path, err)
	}
	answers = questionnaire.Sanitize(answers)
	if answers.Days == nil && project != nil {
		answers.Days = greenops.Int(project.DefaultDays())
	}
	return answers, nil
}

func renderCalculation(w io.Writer, format string, rows []CalculationRow) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, rows)
	case config.FormatTable, "":
		return renderCalculationTable(w, rows)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderCalculationTable(w io.Writer, rows []CalculationRow) error {
	precision := config.GetOutputPrecision()
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTRANSPORT\tACCOMMODATION\tFOOD\tACTIVITIES\tTOTAL\tTREES")
	fmt.Fprintln(tw, "----\t---------\t-------------\t----\t----------\t-----\t-----")

	var total float64
	for _, r := range rows {
		e := r.Emissions
		total += e.TotalCO2
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.File,
			greenops.FormatKg(e.TransportCO2, precision),
			greenops.FormatKg(e.AccommodationCO2, precision),
			greenops.FormatKg(e.FoodCO2, precision),
			greenops.FormatKg(e.ProjectActivitiesCO2, precision),
			greenops.FormatKg(e.TotalCO2, precision),
			e.TreesNeeded,
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}

	if len(rows) > 1 {
		fmt.Fprintln(w, strings.Repeat("-", separatorLen))
		fmt.Fprintf(w, "Combined: %s CO2\n", greenops.FormatKg(total, precision))
	}
	if len(rows) == 1 && rows[0].Equivalent != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, rows[0].Equivalent)
	}
	return nil
}

const separatorLen = 40
