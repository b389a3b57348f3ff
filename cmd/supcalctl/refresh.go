package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"supcal/internal/adapters"
	"supcal/internal/services"
)

func refreshCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one rollover cycle against the configured store",
		Long: `Advance every stored next occurrence that has passed and clear the
occurrence of records that ended. Changes are broadcast when AMQP_URL is set.`,
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

			publisher, closePublisher, err := adapters.OpenPublisher(cfg)
			if err != nil {
				return err
			}
			defer closePublisher()

			if workers < 1 {
				workers = cfg.RefreshWorkers
			}
			report, err := services.NewRolloverProcessor(store, publisher, workers).
				ProcessDue(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d refreshed=%d deactivated=%d failed=%d\n",
				report.Checked, report.Refreshed, report.Deactivated, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d records could not be refreshed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "parallel refresh workers (default REFRESH_WORKERS)")
	return cmd
}
