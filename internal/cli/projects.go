package cli

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/greentrail/internal/cli/pagination"
	"github.com/rshade/greentrail/internal/config"
	"github.com/rshade/greentrail/internal/projects"
	"github.com/rshade/greentrail/internal/questionnaire"
)

// NewProjectsListCmd creates the projects list command.
func NewProjectsListCmd() *cobra.Command {
	var (
		files    []string
		sortExpr string
		page     pagination.Params
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects from project files",
		Example: `  # Configured project files
  greentrail projects list

  # A specific file
  greentrail projects list --file events.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths := append(append([]string{}, files...), config.GetGlobalConfig().Projects.Files...)
			if len(paths) == 0 {
				return errors.New("no project files configured, pass --file")
			}
			list, err := projects.NewFileProvider(paths...).List()
			if err != nil {
				return err
			}
			if page.SortField, page.SortOrder, err = pagination.ParseSort(sortExpr); err != nil {
				return err
			}
			if list, err = projectSorter().Page(list, page); err != nil {
				return err
			}
			switch outputFormat(cmd) {
			case config.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), list)
			default:
				return renderProjects(cmd.OutOrStdout(), list)
			}
		},
	}

	cmd.Flags().StringArrayVar(&files, "file", nil, "project file (repeatable)")
	cmd.Flags().StringVar(&sortExpr, "sort", "", "sort by field[:asc|desc]: id, name, start or days")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "list at most this many projects (0 lists all)")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "skip this many projects")
	cmd.Flags().StringP("output", "o", "", "output format: table or json (default from config)")
	return cmd
}

func projectSorter() *pagination.Sorter[questionnaire.Project] {
	return pagination.NewSorter(map[string]func(a, b questionnaire.Project) int{
		"id":    func(a, b questionnaire.Project) int { return cmp.Compare(a.ID, b.ID) },
		"name":  func(a, b questionnaire.Project) int { return cmp.Compare(a.Name, b.Name) },
		"start": func(a, b questionnaire.Project) int { return a.StartDate.Compare(b.StartDate) },
		"days":  func(a, b questionnaire.Project) int { return cmp.Compare(a.DefaultDays(), b.DefaultDays()) },
	})
}

func renderProjects(w io.Writer, list []questionnaire.Project) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND\tDAYS\tACTIVITIES")
	fmt.Fprintln(tw, "--\t----\t-----\t---\t----\t----------")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			p.ID, p.Name, formatDate(p.StartDate.IsZero(), p.StartDate.Format("2006-01-02")),
			formatDate(p.EndDate.IsZero(), p.EndDate.Format("2006-01-02")),
			p.DefaultDays(), len(p.Activities))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}
	return nil
}

func formatDate(zero bool, formatted string) string {
	if zero {
		return "-"
	}
	return formatted
}
