package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/discovergy/discovergy"
)

const timeFlagHelp = "RFC 3339 time, YYYY-MM-DD, epoch milliseconds, 'now' or a duration ago (e.g. 24h)"

var (
	fromFlag       string
	toFlag         string
	resolutionFlag string
)

// readingsCmd represents the readings command
var readingsCmd = &cobra.Command{
	Use:   "readings <meterId>",
	Short: "Show readings of a meter for a time window",
	Long: `Show the readings of a meter between --from and --to at the given resolution.
Omitting --to reads up to now.

Resolutions: raw, three_minutes, fifteen_minutes, one_hour, one_day, one_week,
one_month, one_year.`,
	Args: cobra.ExactArgs(1),
	RunE: runReadings,
}

// disaggregationCmd represents the disaggregation command
var disaggregationCmd = &cobra.Command{
	Use:   "disaggregation <meterId>",
	Short: "Show the estimated consumption per device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisaggregation,
}

// activitiesCmd represents the activities command
var activitiesCmd = &cobra.Command{
	Use:   "activities <meterId>",
	Short: "Show the device activities detected for a time window",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivities,
}

func init() {
	for _, c := range []*cobra.Command{readingsCmd, disaggregationCmd, activitiesCmd} {
		c.Flags().StringVar(&fromFlag, "from", "", "window start: "+timeFlagHelp)
		c.Flags().StringVar(&toFlag, "to", "", "window end: "+timeFlagHelp)
		_ = c.MarkFlagRequired("from")
	}
	_ = activitiesCmd.MarkFlagRequired("to")

	readingsCmd.Flags().StringVarP(&resolutionFlag, "resolution", "r", string(discovergy.ResolutionRaw), "time distance between readings")
}

// parseTimeFlag parses a --from/--to value relative to now. An empty value
// yields the zero time.
func parseTimeFlag(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	switch value {
	case "":
		return time.Time{}, nil
	case "now":
		return now, nil
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}

	if d, err := time.ParseDuration(strings.TrimPrefix(value, "-")); err == nil {
		return now.Add(-d), nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time %q: expected %s", value, timeFlagHelp)
}

// timeWindow parses the --from and --to flags
func timeWindow(now time.Time) (start, end time.Time, err error) {
	start, err = parseTimeFlag(fromFlag, now)
	if err != nil {
		return start, end, fmt.Errorf("--from: %w", err)
	}
	if start.IsZero() {
		return start, end, errors.New("--from is required")
	}

	end, err = parseTimeFlag(toFlag, now)
	if err != nil {
		return start, end, fmt.Errorf("--to: %w", err)
	}
	if !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("--to (%s) is before --from (%s)", formatTime(end), formatTime(start))
	}
	return start, end, nil
}

func runReadings(cmd *cobra.Command, args []string) error {
	start, end, err := timeWindow(time.Now())
	if err != nil {
		return err
	}

	resolution := discovergy.Resolution(resolutionFlag)
	if !resolution.Valid() {
		logger.Warn().Str("resolution", resolution.String()).Msg("Unknown resolution, passing it to the API unchanged")
	}

	readings, err := client.GetReadings(cmd.Context(), args[0], start, end, resolution)
	if err != nil {
		return err
	}
	return newPrinter(cmd.OutOrStdout()).Readings(readings)
}

func runDisaggregation(cmd *cobra.Command, args []string) error {
	start, end, err := timeWindow(time.Now())
	if err != nil {
		return err
	}

	d, err := client.GetDisaggregation(cmd.Context(), args[0], start, end)
	if err != nil {
		return err
	}
	return newPrinter(cmd.OutOrStdout()).Disaggregation(d)
}

func runActivities(cmd *cobra.Command, args []string) error {
	start, end, err := timeWindow(time.Now())
	if err != nil {
		return err
	}

	activities, err := client.GetActivities(cmd.Context(), args[0], start, end)
	if err != nil {
		return err
	}
	return newPrinter(cmd.OutOrStdout()).Activities(activities)
}
