package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"supcal/internal/cli"
	"supcal/internal/config"
	applog "supcal/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "supcalctl",
	Short: "Operate a supcal installation",
	Long: `supcalctl computes recurrence boundaries, runs one-shot rollovers,
prints the dashboard and manages database migrations.

Store settings come from the same environment, .env file and SUPCAL_CONFIG
file as the server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		cli.LoadEnvFile()
		level, _ := cmd.Flags().GetString("log-level")
		lvl, err := applog.ParseLevel(level)
		if err != nil {
			lvl = slog.LevelInfo
		}
		applog.SetDefault(applog.NewText(cmd.ErrOrStderr(), lvl, "supcalctl"))
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(nextCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(migrateCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the shared configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
