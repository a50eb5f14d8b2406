package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discovergy/discovergy"
	"github.com/s0up4200/discovergy/filter"
)

// metersCmd represents the meters command
var metersCmd = &cobra.Command{
	Use:   "meters",
	Short: "List meters matching the filter criteria",
	Long: `List all meters of your account, optionally restricted by a filter expression.

Examples:
  discovergy meters --filter 'Type == "EASYMETER"'
  discovergy meters --filter 'City == "Aachen" and daysSince(LastMeasurement) < 1'
  discovergy meters --preset electricity`,
	Args: cobra.NoArgs,
	RunE: runMeters,
}

// fieldsCmd represents the fields command
var fieldsCmd = &cobra.Command{
	Use:   "fields <meterId>",
	Short: "List the measurement fields a meter provides",
	Args:  cobra.ExactArgs(1),
	RunE:  runFields,
}

// readingCmd represents the reading command
var readingCmd = &cobra.Command{
	Use:   "reading <meterId>",
	Short: "Show the last reading of a meter",
	Args:  cobra.ExactArgs(1),
	RunE:  runReading,
}

func init() {
	metersCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	metersCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
}

func runMeters(cmd *cobra.Command, args []string) error {
	expr, err := getFilterExpression()
	if err != nil {
		return err
	}

	f, err := filter.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}

	meters, err := client.GetMeters(cmd.Context())
	if err != nil {
		return err
	}

	selected, err := filter.Select(f, meters)
	if err != nil {
		return err
	}

	logger.Debug().
		Str("filter", expr).
		Int("total", len(meters)).
		Int("matched", len(selected)).
		Msg("Filtered meters")

	return newPrinter(cmd.OutOrStdout()).Meters(selected)
}

func runFields(cmd *cobra.Command, args []string) error {
	fields, err := client.GetFieldNames(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return newPrinter(cmd.OutOrStdout()).FieldNames(fields)
}

func runReading(cmd *cobra.Command, args []string) error {
	reading, err := client.GetLastReading(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	p := newPrinter(cmd.OutOrStdout())
	if p.format == "json" {
		return p.json(reading)
	}
	return p.Readings([]discovergy.Reading{reading})
}
