package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"supcal/internal/adapters"
	"supcal/internal/services"
)

func dashboardCmd() *cobra.Command {
	var top, upcoming int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := adapters.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			limits := cfg.Limits()
			if top > 0 {
				limits.Top = top
			}
			if upcoming > 0 {
				limits.Upcoming = upcoming
			}
			d, err := services.NewDashboardService(store, limits).Dashboard(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "number of top payments (default DASHBOARD_TOP_LIMIT)")
	cmd.Flags().IntVar(&upcoming, "upcoming", 0, "number of upcoming reminders (default DASHBOARD_UPCOMING_LIMIT)")
	return cmd
}
