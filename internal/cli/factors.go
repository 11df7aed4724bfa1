package cli

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/greentrail/internal/config"
	"github.com/rshade/greentrail/internal/greenops"
)

// NewFactorsCmd creates the factors command that prints the emission factor table.
func NewFactorsCmd() *cobra.Command {
	var factorsFile string

	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Print the emission factor table",
		Long: `Prints the emission factors used for calculations after validating them.
With --file, the given YAML table is validated and printed instead of the
configured one.`,
		Example: `  # Built-in or configured factors
  greentrail factors

  # Validate a custom table
  greentrail factors --file factors.yaml --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			calc, err := newCalculator(config.GetGlobalConfig(), factorsFile)
			if err != nil {
				return err
			}
			switch outputFormat(cmd) {
			case config.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), calc.Factors())
			default:
				return renderFactors(cmd.OutOrStdout(), calc.Factors())
			}
		},
	}

	cmd.Flags().StringVar(&factorsFile, "file", "", "YAML emission factor table to validate and print")
	cmd.Flags().StringP("output", "o", "", "output format: table or json (default from config)")
	return cmd
}

func renderFactors(w io.Writer, fs *greenops.FactorSet) error {
	fmt.Fprintf(w, "Factor table version %s\n\n", fs.Version)

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tKEY\tFACTOR\tUNIT")
	fmt.Fprintln(tw, "-----\t---\t------\t----")
	writeGroup(tw, "transport", fs.Transport, "kg CO2/km")
	writeGroup(tw, "accommodation", fs.Accommodation, "kg CO2/night")
	writeGroup(tw, "occupancy", fs.RoomOccupancy, "share")
	fmt.Fprintf(tw, "energy\tgreen energy\t%g\tshare\n", fs.Energy.Green)
	fmt.Fprintf(tw, "energy\tconventional energy\t%g\tshare\n", fs.Energy.Conventional)
	writeGroup(tw, "food", fs.Food, "kg CO2/day")
	fmt.Fprintf(tw, "trees\tabsorption\t%g\tkg CO2/year\n", fs.TreeAbsorptionPerYear)
	fmt.Fprintf(tw, "transport\tround trip\t%g\tmultiplier\n", fs.RoundTripMultiplier)

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}
	return nil
}

func writeGroup[K ~string](w io.Writer, group string, m map[K]float64, unit string) {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\t%g\t%s\n", group, k, m[k], unit)
	}
}
