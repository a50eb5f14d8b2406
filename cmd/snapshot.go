package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/discovergy/discovergy"
	"github.com/s0up4200/discovergy/filter"
)

// snapshotEntry is the last reading of one meter. A failed fetch is
// reported in Error instead of aborting the snapshot.
type snapshotEntry struct {
	MeterID string             `json:"meterId"`
	Type    string             `json:"type"`
	Reading discovergy.Reading `json:"reading,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Show the last reading of every matching meter",
	Long: `Fetch the last reading of every meter matching the filter criteria.
Readings are fetched concurrently, bounded by snapshot.concurrency.`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	snapshotCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	expr, err := getFilterExpression()
	if err != nil {
		return err
	}

	f, err := filter.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}

	ctx := cmd.Context()
	meters, err := client.GetMeters(ctx)
	if err != nil {
		return err
	}

	selected, err := filter.Select(f, meters)
	if err != nil {
		return err
	}

	logger.Info().Int("meters", len(selected)).Msg("Fetching last readings")

	entries, err := collectSnapshot(ctx, client, selected, cfg.Snapshot.Concurrency, logger)
	if err != nil {
		return err
	}
	return newPrinter(cmd.OutOrStdout()).Snapshot(entries)
}

// collectSnapshot fetches the last reading of each meter with at most
// concurrency requests in flight. Entries keep the order of meters.
func collectSnapshot(ctx context.Context, api discovergy.API, meters []discovergy.Meter, concurrency int, logger zerolog.Logger) ([]snapshotEntry, error) {
	entries := make([]snapshotEntry, len(meters))
	if len(meters) == 0 {
		return entries, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for i, meter := range meters {
		entries[i] = snapshotEntry{MeterID: meter.ID(), Type: meter.Type()}

		g.Go(func() error {
			reading, err := api.GetLastReading(ctx, meter.ID())
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().
					Err(err).
					Str("meter_id", meter.ID()).
					Msg("Failed to get last reading")
				// Continue with the other meters
				entries[i].Error = err.Error()
				return nil
			}
			entries[i].Reading = reading
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
