package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"supcal/internal/core"
)

func nextCmd() *cobra.Command {
	var (
		anchorRaw string
		fromRaw   string
		periodRaw string
		count     int
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the next boundaries of a period",
		Long: `Print the next boundaries of a recurrence, strictly after --from.

Boundaries are anchor + k steps with k >= 1. Month-based steps keep the
anchor day and clamp it to the length of shorter months.`,
		Example: `  supcalctl next --anchor 2024-01-31T09:00:00Z --period month --count 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			anchor, err := parseTimeFlag("anchor", anchorRaw)
			if err != nil {
				return err
			}
			from := time.Now().UTC()
			if fromRaw != "" {
				if from, err = parseTimeFlag("from", fromRaw); err != nil {
					return err
				}
			}
			period, err := core.ParsePeriodKind(periodRaw)
			if err != nil {
				return err
			}
			if count < 1 || count > 1000 {
				return fmt.Errorf("--count must be between 1 and 1000")
			}

			times, err := core.Occurrences(anchor, period, from, count)
			if err != nil {
				return err
			}
			for _, t := range times {
				fmt.Fprintln(cmd.OutOrStdout(), t.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&anchorRaw, "anchor", "", "anchor time (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&fromRaw, "from", "", "compute boundaries after this time (default now)")
	cmd.Flags().StringVar(&periodRaw, "period", "month", "week, month, quarter, half-year or year")
	cmd.Flags().IntVar(&count, "count", 1, "number of boundaries to print")
	_ = cmd.MarkFlagRequired("anchor")
	return cmd
}

func parseTimeFlag(name, raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("--%s: %q is not RFC 3339 or YYYY-MM-DD", name, raw)
}
